package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Known flow names accepted by the `flows` setting.
const (
	FlowPosts         = "posts"
	FlowUsers         = "users"
	FlowPhotos        = "photos"
	FlowPopularMovies = "popular_movies"
)

var knownFlows = map[string]struct{}{
	FlowPosts:         {},
	FlowUsers:         {},
	FlowPhotos:        {},
	FlowPopularMovies: {},
}

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	PlaceholderBaseURL string `mapstructure:"placeholder_base_url"`
	TMDBBaseURL        string `mapstructure:"tmdb_base_url"`
	TMDBAPIKey         string `mapstructure:"tmdb_api_key"`
	// RedactSecretsRaw is kept as a string so "unset" can fall back to the env default.
	RedactSecretsRaw   string        `mapstructure:"redact_secrets"`
	HTTPTimeoutSeconds int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout        time.Duration `mapstructure:"-"`
	LogBodyBytes       int           `mapstructure:"log_body_bytes"`

	FlowsRaw             string        `mapstructure:"flows"`
	Flows                []string      `mapstructure:"-"`
	FetchIntervalSeconds int64         `mapstructure:"fetch_interval_seconds"`
	FetchInterval        time.Duration `mapstructure:"-"`

	ImageOutDir   string `mapstructure:"image_out_dir"`
	ImageMaxBytes int64  `mapstructure:"image_max_bytes"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`

	PublishersFile string `mapstructure:"publishers_file"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("app_name", "deferred-feeds")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "")
	v.SetDefault("placeholder_base_url", "https://jsonplaceholder.typicode.com")
	v.SetDefault("tmdb_base_url", "https://api.themoviedb.org/3/")
	v.SetDefault("tmdb_api_key", "")
	v.SetDefault("redact_secrets", "")
	v.SetDefault("http_timeout_seconds", 15)
	v.SetDefault("log_body_bytes", 4096)
	v.SetDefault("flows", strings.Join([]string{FlowPosts, FlowUsers, FlowPhotos, FlowPopularMovies}, ","))
	v.SetDefault("fetch_interval_seconds", 0)
	v.SetDefault("image_out_dir", "./data/images")
	v.SetDefault("image_max_bytes", 10<<20)
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/images.db")
	v.SetDefault("storage_ttl_seconds", int64((24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64(time.Hour/time.Second))
	v.SetDefault("publishers_file", "")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) finalize() error {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.TMDBAPIKey = strings.TrimSpace(c.TMDBAPIKey)

	// Debug builds log every request and response unless a level is set.
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = "info"
		if c.Debug() {
			c.LogLevel = "debug"
		}
	}

	if err := validateBaseURL("placeholder_base_url", c.PlaceholderBaseURL); err != nil {
		return err
	}
	if err := validateBaseURL("tmdb_base_url", c.TMDBBaseURL); err != nil {
		return err
	}

	if c.HTTPTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid http_timeout_seconds (must be positive seconds)")
	}
	c.HTTPTimeout = time.Duration(c.HTTPTimeoutSeconds) * time.Second

	if c.LogBodyBytes <= 0 {
		return fmt.Errorf("invalid log_body_bytes (must be positive)")
	}
	if c.ImageMaxBytes <= 0 {
		return fmt.Errorf("invalid image_max_bytes (must be positive)")
	}

	if c.FetchIntervalSeconds < 0 {
		return fmt.Errorf("invalid fetch_interval_seconds (must not be negative)")
	}
	c.FetchInterval = time.Duration(c.FetchIntervalSeconds) * time.Second

	flows, err := parseFlows(c.FlowsRaw)
	if err != nil {
		return err
	}
	c.Flows = flows

	if c.StorageTTLSeconds <= 0 {
		return fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if c.StorageCleanupSeconds <= 0 {
		return fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	c.StorageTTL = time.Duration(c.StorageTTLSeconds) * time.Second
	c.StorageCleanupInterval = time.Duration(c.StorageCleanupSeconds) * time.Second

	if _, err := parseOptionalBool(c.RedactSecretsRaw); err != nil {
		return fmt.Errorf("invalid redact_secrets: %w", err)
	}

	return nil
}

// Debug reports whether the process runs as a debug build.
func (c *Config) Debug() bool {
	switch c.Env {
	case "production", "prod", "release":
		return false
	default:
		return true
	}
}

// RedactSecrets reports whether secret query parameters are masked in request logs.
// An explicit redact_secrets value wins; otherwise release builds redact and debug builds don't.
func (c *Config) RedactSecrets() bool {
	if v, err := parseOptionalBool(c.RedactSecretsRaw); err == nil && v != nil {
		return *v
	}
	return !c.Debug()
}

func validateBaseURL(key, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%s is required", key)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid %s (expected absolute http(s) url, got %q)", key, raw)
	}
	return nil
}

func parseFlows(raw string) ([]string, error) {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		name := strings.ToLower(strings.TrimSpace(p))
		if name == "" {
			continue
		}
		if _, ok := knownFlows[name]; !ok {
			return nil, fmt.Errorf("unknown flow %q in flows", name)
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("flows must name at least one flow")
	}
	return out, nil
}

func parseOptionalBool(raw string) (*bool, error) {
	var v bool
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return nil, nil
	case "1", "true", "yes", "on":
		v = true
	case "0", "false", "no", "off":
		v = false
	default:
		return nil, fmt.Errorf("not a boolean: %q", raw)
	}
	return &v, nil
}
