package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/deferred-feeds/internal/app"
	"github.com/samvad-hq/deferred-feeds/internal/config"
	"github.com/samvad-hq/deferred-feeds/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "feeds start failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("feeds starting", "config", map[string]any{
		"app_env":        cfg.Env,
		"debug":          cfg.Debug(),
		"redact_secrets": cfg.RedactSecrets(),
		"flows":          cfg.Flows,
		"interval":       cfg.FetchInterval.String(),
		"storage_type":   cfg.StorageType,
		"image_out_dir":  cfg.ImageOutDir,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, err := app.NewRunnerFromConfig(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize runner", "error", err.Error())
		return err
	}

	if err := runner.Run(ctx); err != nil {
		return fmt.Errorf("runner run: %w", err)
	}
	return nil
}
