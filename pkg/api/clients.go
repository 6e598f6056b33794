package api

import (
	"fmt"
	"time"

	"github.com/samvad-hq/deferred-feeds/pkg/httpclient"
	"go.uber.org/zap"
)

// ClientsConfig describes the upstreams and how requests to them are logged.
type ClientsConfig struct {
	PlaceholderBaseURL string
	TMDBBaseURL        string
	// TMDBKey is read on every TMDB request, so rotating it takes effect immediately.
	TMDBKey *httpclient.Credential
	Timeout time.Duration

	LogRequests   bool
	RedactSecrets bool
	LogBodyBytes  int
	UserAgent     string
}

// Clients holds one ready-to-use endpoint set per upstream. Build it once at
// startup and pass it to whatever needs it.
type Clients struct {
	Placeholder PlaceholderAPI
	TMDB        TMDBAPI
}

// NewClients builds the placeholder and TMDB clients. Only the TMDB client
// carries the API-key interceptor.
func NewClients(cfg ClientsConfig, log *zap.Logger) (*Clients, error) {
	if log == nil {
		log = zap.NewNop()
	}
	logging := httpclient.LogPolicy{
		Enabled:       cfg.LogRequests,
		RedactSecrets: cfg.RedactSecrets,
		SecretParams:  []string{httpclient.DefaultAPIKeyParam},
		MaxBody:       cfg.LogBodyBytes,
	}

	placeholderHTTP, err := httpclient.NewClient(cfg.PlaceholderBaseURL, httpclient.Options{
		Timeout:   cfg.Timeout,
		Logging:   logging,
		Logger:    log.With(zap.String("upstream", "placeholder")),
		UserAgent: cfg.UserAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("build placeholder client: %w", err)
	}

	key := cfg.TMDBKey
	if key == nil {
		key = httpclient.NewCredential("")
	}
	tmdbHTTP, err := httpclient.NewClient(cfg.TMDBBaseURL, httpclient.Options{
		Timeout:      cfg.Timeout,
		Interceptors: []httpclient.Interceptor{httpclient.APIKeyInterceptor(httpclient.DefaultAPIKeyParam, key)},
		Logging:      logging,
		Logger:       log.With(zap.String("upstream", "tmdb")),
		UserAgent:    cfg.UserAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("build tmdb client: %w", err)
	}

	placeholder, err := NewPlaceholderAPI(placeholderHTTP)
	if err != nil {
		return nil, err
	}
	tmdb, err := NewTMDBAPI(tmdbHTTP)
	if err != nil {
		return nil, err
	}
	return &Clients{Placeholder: placeholder, TMDB: tmdb}, nil
}
