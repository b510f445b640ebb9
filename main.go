package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cardvault/cardvault/backend"
	"github.com/cardvault/cardvault/backend/config"
	"github.com/cardvault/cardvault/backend/handlers"
	webservices "github.com/cardvault/cardvault/backend/services"
	"github.com/cardvault/cardvault/cardvault"
	"github.com/cardvault/cardvault/cardvault/logger"
	"github.com/cardvault/cardvault/internal/domain/collection"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	logger.Setup("CardVault", slog.LevelInfo)

	path := flag.String("config", "config.toml", "path to config")
	initSchema := flag.Bool("init-schema", false, "create missing tables and seed boosters before serving")
	flag.Parse()

	cfg, err := cardvault.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}
	logger.Setup("CardVault", cfg.Log.Level)

	slog.Info("Starting CardVault",
		slog.String("type", "sys"),
		slog.String("version", version),
		slog.String("commit", commit))

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	dbStartTime := time.Now()
	app := cardvault.New(*cfg, version, commit)
	if err := app.Connect(ctx); err != nil {
		slog.Error("Database connection failed",
			slog.String("type", "db"),
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}
	defer app.Close()

	slog.Info("Database connected successfully",
		slog.String("type", "db"),
		slog.String("database", cfg.DB.Database),
		slog.Duration("took", time.Since(dbStartTime)))

	if *initSchema {
		if err := app.DB.InitializeSchema(ctx); err != nil {
			slog.Error("Failed to initialize database schema", slog.String("error", err.Error()))
			os.Exit(-1)
		}
		if _, err := app.SeedBoosters(ctx); err != nil {
			slog.Error("Failed to seed boosters", slog.String("error", err.Error()))
			os.Exit(-1)
		}
	}

	scheduler, err := app.NewScheduler()
	if err != nil {
		slog.Error("Failed to set up background jobs", slog.String("error", err.Error()))
		os.Exit(-1)
	}
	scheduler.Start()

	server := backend.NewApp(newWebApp(app))

	address := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	slog.Info("Starting HTTP server", slog.String("type", "sys"), slog.String("address", address))

	go func() {
		if err := server.Listen(address); err != nil {
			slog.Error("Failed to start server", slog.String("error", err.Error()))
		}
	}()

	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s
	slog.Info("Shutting down...", slog.String("type", "sys"))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("Server shutdown error", slog.String("error", err.Error()))
	}
	scheduler.Stop(shutdownCtx)

	slog.Info("Shutdown complete", slog.String("type", "sys"))
}

// newWebApp adapts the game services to the HTTP layer.
func newWebApp(app *cardvault.App) *handlers.WebApp {
	webCfg := config.NewWebAppConfig(&app.Cfg)
	users := webservices.NewUserService(app.UserRepository)

	var images webservices.ImageStore
	if app.SpacesService != nil {
		images = app.SpacesService
	}

	stats := webservices.NewStatsService(
		app.CardRepository,
		app.UserRepository,
		app.CollectedCardRepository,
		app.BoosterRepository,
		app.SaleRepository,
		app.TradeRepository,
		app.Boosts,
	)

	return &handlers.WebApp{
		Config:          webCfg,
		DB:              app.DB,
		SessionService:  webservices.NewSessionService(webCfg),
		AuthService:     webservices.NewAuthService(app.UserRepository, webCfg.StartingCredits()),
		Users:           users,
		Credits:         users,
		Catalog:         app.Catalog,
		Boosters:        app.BoosterRepository,
		Opener:          app.Opener,
		Boosts:          app.Boosts,
		Collection:      collection.NewService(app.CollectedCardRepository, app.UserRepository),
		Merchant:        app.Merchant,
		Trades:          app.TradeManager,
		Achievements:    app.Achievements,
		CardMgmtService: webservices.NewCardManagementService(app.CardRepository, images, app.Catalog, app.Sanitizer),
		Importer:        webservices.NewCardImportService(app.CardRepository, app.Catalog, app.Sanitizer),
		Stats:           stats,
		Version:         version,
		Commit:          commit,
	}
}
