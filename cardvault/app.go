package cardvault

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cardvault/cardvault/cardvault/database"
	"github.com/cardvault/cardvault/cardvault/database/repositories"
	"github.com/cardvault/cardvault/cardvault/economy/booster"
	"github.com/cardvault/cardvault/cardvault/economy/merchant"
	"github.com/cardvault/cardvault/cardvault/economy/trade"
	"github.com/cardvault/cardvault/cardvault/economy/utils"
	"github.com/cardvault/cardvault/cardvault/services"
)

// App holds the connected database, the repositories and every game service.
type App struct {
	Cfg     Config
	Version string
	Commit  string
	DB      *database.DB

	UserRepository          repositories.UserRepository
	CardRepository          repositories.CardRepository
	CollectedCardRepository repositories.CollectedCardRepository
	BoosterRepository       repositories.BoosterRepository
	BoostSessionRepository  repositories.BoostSessionRepository
	TradeRepository         repositories.TradeRepository
	SaleRepository          repositories.SaleRepository
	AchievementRepository   repositories.AchievementRepository

	Catalog       *services.CatalogService
	Boosts        *services.BoostService
	Achievements  *services.AchievementService
	Sanitizer     *services.Sanitizer
	SpacesService *services.SpacesService

	Opener       *booster.Opener
	Merchant     *merchant.Merchant
	TradeManager *trade.Manager
}

func New(cfg Config, version string, commit string) *App {
	return &App{
		Cfg:     cfg,
		Version: version,
		Commit:  commit,
	}
}

// Connect opens the database and builds repositories and services on top of it.
func (a *App) Connect(ctx context.Context) error {
	db, err := database.New(ctx, a.Cfg.DB)
	if err != nil {
		return err
	}
	a.DB = db
	a.wire(ctx)
	return nil
}

func (a *App) wire(ctx context.Context) {
	bunDB := a.DB.BunDB()

	a.UserRepository = repositories.NewUserRepository(bunDB)
	a.CardRepository = repositories.NewCardRepository(bunDB)
	a.CollectedCardRepository = repositories.NewCollectedCardRepository(bunDB)
	a.BoosterRepository = repositories.NewBoosterRepository(bunDB)
	a.BoostSessionRepository = repositories.NewBoostSessionRepository(bunDB)
	a.TradeRepository = repositories.NewTradeRepository(bunDB)
	a.SaleRepository = repositories.NewSaleRepository(bunDB)
	a.AchievementRepository = repositories.NewAchievementRepository(bunDB)

	txm := utils.NewEconomicTransactionManager(bunDB)

	a.Sanitizer = services.NewSanitizer()
	a.Catalog = services.NewCatalogService(a.CardRepository)
	a.Boosts = services.NewBoostService(a.BoostSessionRepository)
	a.Achievements = services.NewAchievementService(a.UserRepository, a.CollectedCardRepository, a.CardRepository, a.AchievementRepository)

	if a.Cfg.Spaces.Key != "" {
		spaces, err := services.NewSpacesService(ctx,
			a.Cfg.Spaces.Key,
			a.Cfg.Spaces.Secret,
			a.Cfg.Spaces.Region,
			a.Cfg.Spaces.Bucket,
			a.Cfg.Spaces.CardRoot,
		)
		if err != nil {
			slog.Warn("Image storage disabled",
				slog.String("type", "sys"),
				slog.String("error", err.Error()))
		} else {
			a.SpacesService = spaces
		}
	}

	// The opener sees the catalog through the cached snapshot.
	catalog := booster.CatalogFunc(func(ctx context.Context) (booster.Catalog, error) {
		snapshot, err := a.Catalog.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		return snapshot, nil
	})

	a.Opener = booster.NewOpener(
		booster.NewPostgresStore(a.BoosterRepository, a.UserRepository, txm),
		catalog,
		a.Boosts,
		booster.NewEngine(nil),
		a.Achievements,
	)
	a.Merchant = merchant.New(
		merchant.NewPostgresStore(a.CardRepository, a.CollectedCardRepository, a.UserRepository, a.SaleRepository, txm),
		a.Achievements,
	)
	a.TradeManager = trade.NewManager(
		trade.NewPostgresStore(a.TradeRepository, a.CollectedCardRepository, a.UserRepository, txm),
		a.Achievements,
		a.Sanitizer,
	)
}

// NewScheduler builds the background jobs: trade expiry and pruning of empty holdings.
func (a *App) NewScheduler() (*trade.Scheduler, error) {
	scheduler, err := trade.NewScheduler(a.TradeManager, a.CollectedCardRepository, a.Cfg.Jobs.TradeExpirySpec, a.Cfg.Jobs.PruneSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return scheduler, nil
}

// SeedBoosters writes the default booster configuration for any type not yet configured.
func (a *App) SeedBoosters(ctx context.Context) (int, error) {
	seeded := 0
	for _, cfg := range booster.DefaultConfigs() {
		_, err := a.BoosterRepository.GetConfig(ctx, cfg.Type)
		if err == nil {
			continue
		}
		if !repositories.IsNotFound(err) {
			return seeded, fmt.Errorf("failed to read booster %s: %w", cfg.Type, err)
		}
		if err := a.BoosterRepository.UpsertConfig(ctx, cfg); err != nil {
			return seeded, fmt.Errorf("failed to seed booster %s: %w", cfg.Type, err)
		}
		seeded++
	}
	return seeded, nil
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}
