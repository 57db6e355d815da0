package config

import (
	"fmt"
	"net/url"
	"time"
)

type Config struct {
	Server ServerConfig
	Edge   EdgeConfig
	Front  FrontConfig
	Log    LogConfig
}

type ServerConfig struct {
	Host string
}

// EdgeConfig holds the two fixed origins the edge router dispatches to.
type EdgeConfig struct {
	Port               int
	PrimaryOrigin      string
	ProfileFrontOrigin string
	ProxyMarker        string
	OriginTimeout      string
}

// FrontConfig configures the profile front origin and its resolver.
type FrontConfig struct {
	Port         int
	APIBase      string
	APITimeout   string
	SiteURL      string
	ProductName  string
	DemoRegistry string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
		},
		Edge: EdgeConfig{
			Port:               8080,
			PrimaryOrigin:      "https://base44.onrender.com",
			ProfileFrontOrigin: "http://127.0.0.1:8081",
			ProxyMarker:        "sfero-edge",
			OriginTimeout:      "30s",
		},
		Front: FrontConfig{
			Port:        8081,
			APITimeout:  "3s",
			SiteURL:     "https://sfero.app",
			ProductName: "Sfero",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON file backend and environment
// variables. Environment variables (SFERO_* and declared aliases) override
// file values. Load is meant to be called once at process start.
func Load() (Config, error) {
	return loadWith(newFileBackend(configFilePath()))
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if err := checkOrigin("edge.primary_origin", cfg.Edge.PrimaryOrigin); err != nil {
		return err
	}
	if err := checkOrigin("edge.profile_front_origin", cfg.Edge.ProfileFrontOrigin); err != nil {
		return err
	}
	if cfg.Front.APIBase != "" {
		if err := checkOrigin("front.api_base", cfg.Front.APIBase); err != nil {
			return err
		}
	}
	if cfg.Edge.ProxyMarker == "" {
		return fmt.Errorf("invalid config: edge.proxy_marker must not be empty")
	}
	if cfg.Edge.Port <= 0 || cfg.Front.Port <= 0 {
		return fmt.Errorf("invalid config: ports must be positive (edge=%d, front=%d)", cfg.Edge.Port, cfg.Front.Port)
	}
	return nil
}

func checkOrigin(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid config: %s: %w", key, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid config: %s must be an absolute http(s) URL, got %q", key, raw)
	}
	return nil
}

// OriginTimeout returns the edge origin timeout, or fallback when the
// configured value does not parse.
func (c Config) OriginTimeout(fallback time.Duration) time.Duration {
	return parseDuration(c.Edge.OriginTimeout, fallback)
}

// APITimeout returns the upstream profile API timeout, or fallback when the
// configured value does not parse.
func (c Config) APITimeout(fallback time.Duration) time.Duration {
	return parseDuration(c.Front.APITimeout, fallback)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
