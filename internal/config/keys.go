package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	aliases []string // consulted in order after env; first non-empty wins
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.host", typ: kString, env: "SFERO_SERVER_HOST",
		apply:   func(cfg *Config, v any) { cfg.Server.Host = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.Host },
	},
	{
		key: "edge.port", typ: kInt, env: "SFERO_EDGE_PORT",
		apply:   func(cfg *Config, v any) { cfg.Edge.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Edge.Port },
	},
	{
		key: "edge.primary_origin", typ: kString, env: "SFERO_PRIMARY_ORIGIN",
		apply:   func(cfg *Config, v any) { cfg.Edge.PrimaryOrigin = v.(string) },
		extract: func(cfg Config) any { return cfg.Edge.PrimaryOrigin },
	},
	{
		key: "edge.profile_front_origin", typ: kString, env: "SFERO_PROFILE_FRONT_ORIGIN",
		apply:   func(cfg *Config, v any) { cfg.Edge.ProfileFrontOrigin = v.(string) },
		extract: func(cfg Config) any { return cfg.Edge.ProfileFrontOrigin },
	},
	{
		key: "edge.proxy_marker", typ: kString, env: "SFERO_PROXY_MARKER",
		apply:   func(cfg *Config, v any) { cfg.Edge.ProxyMarker = v.(string) },
		extract: func(cfg Config) any { return cfg.Edge.ProxyMarker },
	},
	{
		key: "edge.origin_timeout", typ: kString, env: "SFERO_EDGE_ORIGIN_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Edge.OriginTimeout = v.(string) },
		extract: func(cfg Config) any { return cfg.Edge.OriginTimeout },
	},
	{
		key: "front.port", typ: kInt, env: "SFERO_FRONT_PORT",
		apply:   func(cfg *Config, v any) { cfg.Front.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Front.Port },
	},
	{
		key: "front.api_base", typ: kString, env: "SFERO_PROFILE_API_BASE",
		aliases: []string{"NEXT_PUBLIC_API_BASE"},
		apply:   func(cfg *Config, v any) { cfg.Front.APIBase = v.(string) },
		extract: func(cfg Config) any { return cfg.Front.APIBase },
	},
	{
		key: "front.api_timeout", typ: kString, env: "SFERO_PROFILE_API_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Front.APITimeout = v.(string) },
		extract: func(cfg Config) any { return cfg.Front.APITimeout },
	},
	{
		key: "front.site_url", typ: kString, env: "SFERO_SITE_URL",
		apply:   func(cfg *Config, v any) { cfg.Front.SiteURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Front.SiteURL },
	},
	{
		key: "front.product_name", typ: kString, env: "SFERO_PRODUCT_NAME",
		apply:   func(cfg *Config, v any) { cfg.Front.ProductName = v.(string) },
		extract: func(cfg Config) any { return cfg.Front.ProductName },
	},
	{
		key: "front.demo_registry", typ: kString, env: "SFERO_DEMO_REGISTRY",
		apply:   func(cfg *Config, v any) { cfg.Front.DemoRegistry = v.(string) },
		extract: func(cfg Config) any { return cfg.Front.DemoRegistry },
	},
	{
		key: "log.level", typ: kString, env: "SFERO_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

// envNames returns the environment variables for s in lookup order.
func (s keySpec) envNames() []string {
	if s.env == "" {
		return s.aliases
	}
	return append([]string{s.env}, s.aliases...)
}

// lookupEnv returns the first non-empty value among the key's variables.
func (s keySpec) lookupEnv() (name, value string) {
	for _, n := range s.envNames() {
		if v := os.Getenv(n); v != "" {
			return n, v
		}
	}
	return "", ""
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		name, raw := s.lookupEnv()
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", name, raw, err)
			}
		}
	}
}

// LoadDotEnv loads variables from a dotenv file into the process
// environment. Variables already set are left alone. A missing file is not
// an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}
