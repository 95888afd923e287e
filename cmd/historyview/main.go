package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"historyview/internal/config"
	"historyview/internal/logger"
	"historyview/internal/storage"
	"historyview/internal/storage/postgres"
)

var (
	configPath string
	jsonOutput bool

	cfg config.Config
	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "historyview",
	Short:         "Monitoring history timeline and event details",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		log, err = logger.Init(cfg.Logging)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to configuration file (YAML)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(timelineCmd)
	rootCmd.AddCommand(notificationsCmd)
	rootCmd.AddCommand(eventCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

// openStore opens the configured history store: PostgreSQL when a database
// URL is set, the JSON export otherwise.
func openStore() (storage.Store, error) {
	if cfg.UsePostgres() {
		pg, err := openPostgres()
		if err != nil {
			return nil, err
		}
		return pg, nil
	}
	fs, err := storage.NewFileStore(cfg.EventsPath(), logger.WithComponent(log, "filestore"))
	if err != nil {
		return nil, err
	}
	return fs, nil
}

func openPostgres() (*postgres.Store, error) {
	if !cfg.UsePostgres() {
		return nil, fmt.Errorf("database.url is not configured")
	}
	return postgres.New(cfg.Database.URL, cfg.Database.MaxOpenConns, logger.WithComponent(log, "postgres"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
