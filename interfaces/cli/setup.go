package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/felixgeelhaar/bolt/v3"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/globalapptesting/hrl-go/application"
	"github.com/globalapptesting/hrl-go/domain/config"
	"github.com/globalapptesting/hrl-go/domain/event"
	"github.com/globalapptesting/hrl-go/example/maze"
	"github.com/globalapptesting/hrl-go/example/maze/procedural"
	infraconfig "github.com/globalapptesting/hrl-go/infrastructure/config"
	"github.com/globalapptesting/hrl-go/infrastructure/logging"
	"github.com/globalapptesting/hrl-go/infrastructure/storage/badger"
	"github.com/globalapptesting/hrl-go/infrastructure/storage/memory"
	"github.com/globalapptesting/hrl-go/infrastructure/storage/postgres"
	"github.com/globalapptesting/hrl-go/infrastructure/storage/redis"
	"github.com/globalapptesting/hrl-go/infrastructure/storage/sqlite"
)

// loadConfig reads the configuration at path, or returns the built-in one
// when path is empty. envFiles are layered under the process environment.
func loadConfig(path string, strict bool, envFiles ...string) (*config.Config, error) {
	if path == "" {
		cfg := config.Default()
		return &cfg, nil
	}

	loader := infraconfig.NewLoader(
		infraconfig.WithValidation(true),
		infraconfig.WithStrictEnv(strict),
		infraconfig.WithDotEnv(envFiles...),
	)
	cfg, err := loader.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg config.LoggingConfig, out io.Writer, verbose bool) *bolt.Logger {
	lc := logging.DefaultConfig()
	lc.Output = out
	if cfg.Level != "" {
		lc.Level = cfg.Level
	}
	if cfg.Format != "" {
		lc.Format = cfg.Format
	}
	if verbose {
		lc.Level = "debug"
	}
	return logging.New(lc)
}

// newOrchestrator builds the maze variant selected by cfg.
func newOrchestrator(cfg *config.Config, opts ...application.Option) (*application.Orchestrator[maze.State], error) {
	if cfg.MaxCascade > 0 {
		opts = append(opts, application.WithMaxCascade(cfg.MaxCascade))
	}

	mc := maze.ConfigFrom(*cfg)
	switch cfg.Variant {
	case config.VariantProcedural:
		return procedural.NewEnv(mc, opts...)
	case config.VariantSwitching, "":
		return maze.NewEnv(mc, opts...)
	default:
		return nil, fmt.Errorf("unknown variant %q", cfg.Variant)
	}
}

func newPolicy(cfg *config.Config) (application.Policy, error) {
	switch cfg.Policy {
	case config.PolicyRandom:
		return maze.NewRandom(cfg.Seed), nil
	case config.PolicyShortestPath, "":
		grid, err := maze.NewGrid(maze.ConfigFrom(*cfg).Map)
		if err != nil {
			return nil, err
		}
		return maze.ShortestPath{Grid: grid}, nil
	default:
		return nil, fmt.Errorf("unknown policy %q", cfg.Policy)
	}
}

// openStore opens the event store selected by cfg. A nil store means events
// are not recorded. The returned close function is never nil.
func openStore(ctx context.Context, cfg config.StorageConfig) (event.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Driver {
	case config.DriverNone, "":
		return nil, noop, nil

	case config.DriverMemory:
		return memory.NewEventStore(), noop, nil

	case config.DriverBadger:
		opts := []badger.Option{badger.WithDir(cfg.Path)}
		if cfg.KeyPrefix != "" {
			opts = append(opts, badger.WithKeyPrefix(cfg.KeyPrefix))
		}
		store, err := badger.NewEventStore(badger.DefaultConfig(), opts...)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil

	case config.DriverSQLite:
		store, err := sqlite.NewEventStore(sqlite.DefaultConfig(),
			sqlite.WithDSN(cfg.Path),
			sqlite.WithAutoMigrate(),
		)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil

	case config.DriverPostgres:
		pool, err := postgres.NewPoolFromURL(ctx, cfg.DSN, postgres.DefaultConfig())
		if err != nil {
			return nil, noop, err
		}
		store := postgres.NewEventStore(pool, cfg.Schema)
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, noop, err
		}
		return store, closePostgres(store, pool), nil

	case config.DriverRedis:
		opts := []redis.ConfigOption{
			redis.WithAddress(cfg.Address),
			redis.WithPassword(cfg.Password),
			redis.WithDB(cfg.DB),
		}
		if cfg.KeyPrefix != "" {
			opts = append(opts, redis.WithKeyPrefix(cfg.KeyPrefix))
		}
		if d := cfg.Timeout.Duration(); d > 0 {
			opts = append(opts, redis.WithTimeouts(d, d, d))
		}
		store, err := redis.NewEventStore(ctx, redis.DefaultConfig(), opts...)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil

	default:
		return nil, noop, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func closePostgres(store *postgres.EventStore, pool *pgxpool.Pool) func() error {
	return func() error {
		err := store.Close()
		pool.Close()
		return err
	}
}
