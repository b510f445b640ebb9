package booster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cardvault/cardvault/cardvault/database/models"
	"github.com/cardvault/cardvault/cardvault/database/repositories"
	"github.com/cardvault/cardvault/cardvault/logger"
	"github.com/cardvault/cardvault/cardvault/services"
	"github.com/google/uuid"
)

// Store is the persistence the opener needs.
type Store interface {
	GetConfig(ctx context.Context, t models.BoosterType) (*models.BoosterConfig, error)
	Credits(ctx context.Context, userID int64) (int64, error)
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the set of writes applied when a booster is opened.
type Tx interface {
	// Debit must not overdraw; it returns ErrInsufficientCredits instead.
	Debit(ctx context.Context, userID int64, amount int64) error
	AddCard(ctx context.Context, userID int64, key models.CardKey, qty int64) error
	IncrementCounters(ctx context.Context, userID int64, delta repositories.UserCounters) error
	InsertPurchase(ctx context.Context, purchase *models.BoosterPurchase) error
}

type CatalogSource interface {
	Catalog(ctx context.Context) (Catalog, error)
}

// CatalogFunc adapts a function to CatalogSource.
type CatalogFunc func(ctx context.Context) (Catalog, error)

func (f CatalogFunc) Catalog(ctx context.Context) (Catalog, error) {
	return f(ctx)
}

type BoostChecker interface {
	IsBoostActive(ctx context.Context, at time.Time) (bool, error)
}

type AchievementHandler interface {
	Handle(ctx context.Context, ev services.Event) ([]services.Achievement, error)
}

// Result is what a user receives from one opened booster.
type Result struct {
	PurchaseID   string                 `json:"purchase_id"`
	BoosterType  models.BoosterType     `json:"booster_type"`
	Cost         int64                  `json:"cost"`
	Boosted      bool                   `json:"boosted"`
	Cards        []Pull                 `json:"cards"`
	Achievements []services.Achievement `json:"achievements,omitempty"`
}

type Opener struct {
	store        Store
	catalog      CatalogSource
	boosts       BoostChecker
	engine       *Engine
	achievements AchievementHandler
	now          func() time.Time
}

func NewOpener(store Store, catalog CatalogSource, boosts BoostChecker, engine *Engine, achievements AchievementHandler) *Opener {
	return &Opener{
		store:        store,
		catalog:      catalog,
		boosts:       boosts,
		engine:       engine,
		achievements: achievements,
		now:          time.Now,
	}
}

// Open buys and opens one booster. Every precondition is checked and every card drawn
// before anything is written; the writes then happen in a single transaction.
func (o *Opener) Open(ctx context.Context, userID int64, boosterType models.BoosterType) (*Result, error) {
	policy, ok := PolicyFor(boosterType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBooster, boosterType)
	}

	cfg, err := o.store.GetConfig(ctx, boosterType)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownBooster, boosterType)
		}
		return nil, fmt.Errorf("failed to load booster config: %w", err)
	}
	if !cfg.Active {
		return nil, fmt.Errorf("%w: %s is not available", ErrUnknownBooster, boosterType)
	}

	credits, err := o.store.Credits(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load balance: %w", err)
	}
	if credits < cfg.Cost {
		return nil, fmt.Errorf("%w: has %d, needs %d", ErrInsufficientCredits, credits, cfg.Cost)
	}

	catalog, err := o.catalog.Catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	boosted, err := o.boosts.IsBoostActive(ctx, o.now())
	if err != nil {
		// A failed boost lookup must not block purchases; draw at base rates.
		slog.Warn("Boost lookup failed, using base rates",
			slog.String("type", "game"),
			slog.Any("error", err))
		boosted = false
	}

	pulls, err := o.engine.Generate(policy, cfg.CardCount, catalog, boosted)
	if err != nil {
		return nil, err
	}

	result := &Result{
		PurchaseID:  uuid.NewString(),
		BoosterType: boosterType,
		Cost:        cfg.Cost,
		Boosted:     boosted,
		Cards:       pulls,
	}

	err = o.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.Debit(ctx, userID, cfg.Cost); err != nil {
			return err
		}

		delta := repositories.UserCounters{BoostersOpened: 1}
		audit := make([]models.PurchaseCard, 0, len(pulls))
		for _, p := range pulls {
			key := models.CardKey{CardID: p.Card.ID, IsShiny: p.IsShiny}
			if err := tx.AddCard(ctx, userID, key, 1); err != nil {
				return err
			}
			if p.Card.Rarity == models.RarityLegendary {
				delta.LegendaryFound++
			}
			if p.IsShiny {
				delta.ShinyFound++
			}
			audit = append(audit, models.PurchaseCard{CardID: p.Card.ID, Rarity: p.Card.Rarity, IsShiny: p.IsShiny})
		}

		if err := tx.IncrementCounters(ctx, userID, delta); err != nil {
			return err
		}

		return tx.InsertPurchase(ctx, &models.BoosterPurchase{
			PurchaseID:  result.PurchaseID,
			UserID:      userID,
			BoosterType: boosterType,
			Cost:        cfg.Cost,
			Boosted:     boosted,
			Cards:       audit,
		})
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientCredits) {
			return nil, err
		}
		logger.LogError("Booster open failed", err,
			slog.Int64("user_id", userID),
			slog.String("booster", string(boosterType)))
		return nil, fmt.Errorf("failed to open booster: %w", err)
	}

	logger.LogGame("Booster opened",
		slog.Int64("user_id", userID),
		slog.String("booster", string(boosterType)),
		slog.String("purchase_id", result.PurchaseID),
		slog.Bool("boosted", boosted))

	if o.achievements != nil {
		unlocked, err := o.achievements.Handle(ctx, services.BoosterOpened{User: userID})
		if err != nil {
			slog.Debug("Failed to evaluate achievements",
				slog.String("type", "game"),
				slog.Int64("user_id", userID),
				slog.Any("error", err))
		}
		result.Achievements = unlocked
	}

	return result, nil
}
