package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/oscrouter/internal/domain/model"
)

const (
	envPrefix  = "OSCROUTER_"
	envConfig  = envPrefix + "CONFIG"
	envDotFile = envPrefix + "ENV_FILE"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if OSCROUTER_CONFIG is set
//  3. .env file (OSCROUTER_ENV_FILE, default ".env"), never overriding the
//     real environment
//  4. env (prefix OSCROUTER_); OSCROUTER_ROUTES__PLINKO sets routes.plinko
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(envConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	// Routes are merged by normalized station so "Plinko" in a file replaces
	// the default "plinko" instead of sitting next to it.
	routes := k.StringMap("routes")
	k.Delete("routes")

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	mergeRoutes(cfg.Routes, routes)

	if cfg.Addr == "" {
		return nil, fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadDotEnv() error {
	path := os.Getenv(envDotFile)
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	err := godotenv.Load(path)
	if err == nil || (!explicit && errors.Is(err, fs.ErrNotExist)) {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
}

// mergeRoutes writes overrides into dst under normalized keys. Keys already
// in normalized form are applied last, so an env var wins over a
// differently-cased file key for the same station.
func mergeRoutes(dst, overrides map[string]string) {
	keys := make([]string, 0, len(overrides))
	for key := range overrides {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		ni := keys[i] == model.NormalizeStation(keys[i])
		nj := keys[j] == model.NormalizeStation(keys[j])
		if ni != nj {
			return !ni
		}
		return keys[i] < keys[j]
	})
	for _, key := range keys {
		dst[model.NormalizeStation(key)] = overrides[key]
	}
}
