package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	webservices "github.com/cardvault/cardvault/backend/services"
	"github.com/cardvault/cardvault/cardvault"
	"github.com/cardvault/cardvault/cardvault/logger"
)

var (
	configPath string
	seedPath   string
	reset      bool
)

var migrateCMD = &cobra.Command{
	Use:   "migrate",
	Short: "create the schema, seed default boosters and optionally import a card catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cardvault.LoadConfig(configPath)
		if err != nil {
			return err
		}
		logger.Setup("CardVault-Migrate", cfg.Log.Level)

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
		defer cancel()

		app := cardvault.New(*cfg, "migrate", "")
		if err := app.Connect(ctx); err != nil {
			slog.Error("Failed to connect to database", slog.String("type", "db"), slog.Any("error", err))
			return err
		}
		defer app.Close()

		if reset {
			if err := app.DB.ResetAppTables(ctx); err != nil {
				return err
			}
		}

		if err := app.DB.InitializeSchema(ctx); err != nil {
			slog.Error("Schema initialization failed", slog.String("type", "db"), slog.Any("error", err))
			return err
		}
		slog.Info("Database schema initialized", slog.String("type", "db"))

		seeded, err := app.SeedBoosters(ctx)
		if err != nil {
			return err
		}
		slog.Info("Boosters seeded", slog.String("type", "sys"), slog.Int("created", seeded))

		if seedPath == "" {
			return nil
		}

		file, err := os.Open(seedPath)
		if err != nil {
			return err
		}
		defer file.Close()

		importer := webservices.NewCardImportService(app.CardRepository, app.Catalog, app.Sanitizer)
		result, err := importer.ImportCatalog(ctx, file)
		if err != nil {
			slog.Error("Catalog import failed", slog.String("type", "sys"), slog.Any("error", err))
			return err
		}
		for _, rejected := range result.Rejected {
			slog.Warn("Catalog entry rejected", slog.String("type", "sys"), slog.String("entry", rejected))
		}

		slog.Info("Migration completed successfully!", slog.String("type", "sys"))
		return nil
	},
}

func init() {
	migrateCMD.Flags().StringVarP(&configPath, "config", "c", "config.toml", "path to config")
	migrateCMD.Flags().StringVar(&seedPath, "seed", "", "TOML catalog file to import")
	migrateCMD.Flags().BoolVar(&reset, "reset", false, "truncate every application table first")
}

func main() {
	if err := migrateCMD.Execute(); err != nil {
		os.Exit(1)
	}
}
