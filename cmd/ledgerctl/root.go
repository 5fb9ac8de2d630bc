package main

import (
	"fmt"
	"os"

	"lynkledger/internal/config"
	"lynkledger/internal/db"
	"lynkledger/internal/logger"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "Operational jobs for the ledger: migrations, recurring runs, reports",
	Long: `ledgerctl runs the scheduled and administrative jobs of the ledger
against the same database as the API server.

Configuration is read from the environment (and an optional .env file):
  DATABASE_URL, DB_MAX_OPEN_CONNS, DB_TX_MAX_ATTEMPTS, KAFKA_BROKERS, KAFKA_TOPIC,
  LOG_LEVEL, LOG_FORMAT, LOG_OUTPUT`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		return logger.Setup(cfg.LoggerConfig())
	},
}

var cfg config.Config

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log := logger.WithComponent("ledgerctl")
		log.Error().Err(err).Msg("command failed")
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func connect() (*sqlx.DB, error) {
	database, err := db.Connect(cfg.DatabaseURL, cfg.DBMaxOpenConns)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return database, nil
}
