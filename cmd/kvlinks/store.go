package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/undeadops/kvlinks/internal/db"
	"github.com/undeadops/kvlinks/internal/store"
	"github.com/undeadops/kvlinks/internal/store/memory"
	"github.com/undeadops/kvlinks/internal/store/pgsql"
	"github.com/undeadops/kvlinks/internal/store/sqlite"
)

type storeConfig struct {
	Backend     string
	Region      string
	Table       string
	DDBEndpoint string
	SQLiteDSN   string
	DatabaseDSN string
	Debug       bool
}

var errNoDSN = errors.New("postgres store needs -database-dsn")

// openStore returns the configured backend and a function releasing it.
func openStore(ctx context.Context, cfg storeConfig, logger *zerolog.Logger) (store.Store, func(), error) {
	switch cfg.Backend {
	case "dynamodb":
		client := &db.Client{
			Region:      cfg.Region,
			Table:       cfg.Table,
			DDBEndpoint: cfg.DDBEndpoint,
			DebugMode:   cfg.Debug,
			Logger:      logger,
		}
		if err := db.SetupDB(ctx, client); err != nil {
			return nil, nil, err
		}
		return client, func() {}, nil

	case "sqlite":
		s, err := sqlite.New(ctx, cfg.SQLiteDSN)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				logger.Err(err).Msg("Closing SQLite store")
			}
		}, nil

	case "postgres":
		if cfg.DatabaseDSN == "" {
			return nil, nil, errNoDSN
		}
		s, err := pgsql.New(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	case "memory":
		logger.Warn().Msg("Using in-memory store, mappings are lost on restart")
		return memory.New(), func() {}, nil
	}

	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}
