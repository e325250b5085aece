package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/writewithwrabit/calorietrack/config"
	"github.com/writewithwrabit/calorietrack/db"
	"github.com/writewithwrabit/calorietrack/logging"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "calorietrack",
	Short: "calorietrack records meals and exercise and charts the daily balance",
	Long: `calorietrack is a small web application for logging calorie intake and
exercise, with a monthly dashboard comparing the two.`,
	SilenceUsage: true,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to an env file (defaults to .env)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(reportCmd)
}

// environment is what every subcommand needs before doing real work.
type environment struct {
	cfg *config.Config
	log *slog.Logger
	db  *db.DB
}

func setup(ctx context.Context) (*environment, error) {
	cfg, loaded, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	if !loaded {
		logger.Debug("no env file found, using process environment")
	}

	conn, err := db.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &environment{cfg: cfg, log: logger, db: conn}, nil
}
