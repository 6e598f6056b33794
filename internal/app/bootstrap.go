package app

import (
	"context"
	"fmt"
	"io"

	"github.com/samvad-hq/deferred-feeds/internal/config"
	"github.com/samvad-hq/deferred-feeds/internal/logger"
	"github.com/samvad-hq/deferred-feeds/internal/storage"
	"github.com/samvad-hq/deferred-feeds/pkg/api"
	"github.com/samvad-hq/deferred-feeds/pkg/httpclient"
	"github.com/samvad-hq/deferred-feeds/pkg/images"
	"github.com/samvad-hq/deferred-feeds/pkg/publishers"
)

// NewRunnerFromConfig wires clients, the image cache, the loader and the
// publishers described by cfg into a Runner.
func NewRunnerFromConfig(ctx context.Context, cfg *config.Config, log *logger.ZapLogger) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NewZapLogger(nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	userAgent := cfg.AppName
	clients, err := api.NewClients(api.ClientsConfig{
		PlaceholderBaseURL: cfg.PlaceholderBaseURL,
		TMDBBaseURL:        cfg.TMDBBaseURL,
		TMDBKey:            httpclient.NewCredential(cfg.TMDBAPIKey),
		Timeout:            cfg.HTTPTimeout,
		LogRequests:        true,
		RedactSecrets:      cfg.RedactSecrets(),
		LogBodyBytes:       cfg.LogBodyBytes,
		UserAgent:          userAgent,
	}, log.Zap())
	if err != nil {
		return nil, fmt.Errorf("build api clients: %w", err)
	}
	log.InfoObj("api clients ready", "clients_meta", map[string]any{
		"placeholder_base_url": cfg.PlaceholderBaseURL,
		"tmdb_base_url":        cfg.TMDBBaseURL,
		"tmdb_key_set":         cfg.TMDBAPIKey != "",
		"redact_secrets":       cfg.RedactSecrets(),
	})

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		TTL:             cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"ttl_seconds":              int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	loader, err := images.New(store, images.Options{
		OutDir:    cfg.ImageOutDir,
		MaxBytes:  cfg.ImageMaxBytes,
		Timeout:   cfg.HTTPTimeout,
		UserAgent: userAgent,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("build image loader: %w", err)
	}

	fanout, err := buildFanout(ctx, cfg.PublishersFile, log)
	if err != nil {
		store.Close()
		return nil, err
	}

	closers := []io.Closer{store, fanout}
	runner, err := NewRunner(Deps{
		Clients:  clients,
		Loader:   loader,
		Fanout:   fanout,
		Closers:  closers,
		Flows:    cfg.Flows,
		Interval: cfg.FetchInterval,
		Log:      log,
	})
	if err != nil {
		for _, c := range closers {
			if cerr := c.Close(); cerr != nil {
				log.ErrorObj("resource close failed", "error", cerr.Error())
			}
		}
		return nil, fmt.Errorf("build runner: %w", err)
	}
	return runner, nil
}

// buildFanout loads enabled publishers from path. An empty path disables publishing.
func buildFanout(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	if path == "" {
		log.InfoObj("no publishers file configured; outcomes are logged only", "publishers_file", path)
		return publishers.NewFanout(nil), nil
	}

	reg, err := publishers.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := reg.Enabled()
	pubs, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, p := range enabled {
		summaries = append(summaries, map[string]string{"id": p.ID, "type": p.Type})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubs), nil
}
