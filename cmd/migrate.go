package cmd

import (
	"fmt"

	"github.com/mpwalden/crooner/internal/config"
	"github.com/mpwalden/crooner/internal/db"
	"github.com/mpwalden/crooner/internal/logger"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Pretty)

	database, err := db.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		_ = database.Close()
	}()

	sqlDB, err := database.GetSQLDB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	if err := db.RunMigrations(sqlDB, cfg.Database.MigrationsPath); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Log.Info().Str("path", cfg.Database.Path).Msg("Migrations applied")
	return nil
}
