package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(viper.New())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.PlaceholderBaseURL != "https://jsonplaceholder.typicode.com" {
		t.Fatalf("unexpected placeholder url %q", cfg.PlaceholderBaseURL)
	}
	if cfg.HTTPTimeout != 15*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.HTTPTimeout)
	}
	if len(cfg.Flows) != 4 {
		t.Fatalf("expected 4 default flows, got %v", cfg.Flows)
	}
	if cfg.FetchInterval != 0 {
		t.Fatalf("expected run-once default, got %v", cfg.FetchInterval)
	}
	if !cfg.Debug() || cfg.RedactSecrets() {
		t.Fatalf("development env should be debug without redaction")
	}
}

func TestRedactSecretsFollowsEnvUnlessOverridden(t *testing.T) {
	v := viper.New()
	v.Set("app_env", "production")
	cfg, err := load(v)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Debug() || !cfg.RedactSecrets() {
		t.Fatalf("release env should redact secrets")
	}

	v = viper.New()
	v.Set("app_env", "production")
	v.Set("redact_secrets", "false")
	cfg, err = load(v)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RedactSecrets() {
		t.Fatalf("explicit redact_secrets=false should win")
	}
}

func TestLogLevelDefaultsFollowEnv(t *testing.T) {
	cases := []struct {
		env, level, want string
	}{
		{env: "development", want: "debug"},
		{env: "production", want: "info"},
		{env: "production", level: "WARN", want: "warn"},
		{env: "development", level: "error", want: "error"},
	}
	for _, tc := range cases {
		v := viper.New()
		v.Set("app_env", tc.env)
		if tc.level != "" {
			v.Set("log_level", tc.level)
		}
		cfg, err := load(v)
		if err != nil {
			t.Fatalf("%s/%q: load: %v", tc.env, tc.level, err)
		}
		if cfg.LogLevel != tc.want {
			t.Fatalf("%s/%q: expected level %q, got %q", tc.env, tc.level, tc.want, cfg.LogLevel)
		}
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]any{
		"relative url":   {"tmdb_base_url": "/3/"},
		"unknown flow":   {"flows": "posts,comments"},
		"empty flows":    {"flows": " , "},
		"zero timeout":   {"http_timeout_seconds": 0},
		"negative ticks": {"fetch_interval_seconds": -1},
		"bad bool":       {"redact_secrets": "maybe"},
	}
	for name, overrides := range cases {
		v := viper.New()
		for k, val := range overrides {
			v.Set(k, val)
		}
		if _, err := load(v); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestParseFlowsDedupesAndNormalizes(t *testing.T) {
	flows, err := parseFlows(" Photos ,posts,photos")
	if err != nil {
		t.Fatalf("parseFlows: %v", err)
	}
	if len(flows) != 2 || flows[0] != FlowPhotos || flows[1] != FlowPosts {
		t.Fatalf("unexpected flows %v", flows)
	}
}
