package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/eliejuven/PR-Arena/internal/config"
	"github.com/eliejuven/PR-Arena/internal/db"
	"github.com/eliejuven/PR-Arena/internal/httpapi"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the arena HTTP API server",
		Long:  "Connects to the configured database, applies migrations, and serves the HTTP API until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "arena.yaml", "path to config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.DB)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return httpapi.Start(ctx, httpapi.StartOpts{
		DB:     gormDB,
		Config: cfg,
		Out:    cmd.OutOrStdout(),
	})
}
