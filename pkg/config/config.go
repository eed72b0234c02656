package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	// ErrNilTarget is returned when Load receives a nil pointer.
	ErrNilTarget = errors.New("config: nil target")

	// ErrParse wraps env parsing failures (missing required vars, bad values).
	ErrParse = errors.New("config: failed to parse environment")
)

var (
	dotenvOnce sync.Once

	cacheMu sync.Mutex
	cache   = make(map[reflect.Type]any)
)

// Load populates cfg from environment variables according to its `env` tags.
// A .env file in the working directory is read once per process, if present.
// Each config type is parsed once and cached, so repeated calls from
// different packages see identical values.
//
//	type serviceConfig struct {
//		BaseURL string `env:"AUTH_BASE_URL,required"`
//		Secret  string `env:"AUTH_SECRET"`
//	}
//
//	var cfg serviceConfig
//	if err := config.Load(&cfg); err != nil { ... }
func Load[T any](cfg *T) error {
	if cfg == nil {
		return ErrNilTarget
	}

	dotenvOnce.Do(func() {
		_ = godotenv.Load() // absent .env is fine
	})

	key := reflect.TypeOf(*cfg)

	cacheMu.Lock()
	defer cacheMu.Unlock()

	if cached, ok := cache[key]; ok {
		*cfg = cached.(T)
		return nil
	}

	if err := env.Parse(cfg); err != nil {
		return errors.Join(ErrParse, err)
	}

	cache[key] = *cfg
	return nil
}

// MustLoad is Load for configuration the process cannot start without.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
}
