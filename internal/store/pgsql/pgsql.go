package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/undeadops/kvlinks/internal/store"
)

const createTable = `CREATE TABLE IF NOT EXISTS mappings(
	id SERIAL,
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL);`

type Store struct {
	pool *pgxpool.Pool
}

var (
	_ store.Store    = (*Store)(nil)
	_ store.Inserter = (*Store)(nil)
)

// New connects to the database and makes sure the mappings table exists.
func New(ctx context.Context, connString string) (*Store, error) {
	const op = "init store"

	pool, err := initPool(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := pool.Exec(ctx, createTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Store{pool: pool}, nil
}

func initPool(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	const op = "init connection pool"

	poolCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return pool, nil
}

func (s *Store) Close() {
	if s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	const op = "get value"

	var value string
	err := s.pool.QueryRow(ctx, "SELECT value FROM mappings WHERE key=$1", key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", store.ErrNotFound
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return value, nil
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	const op = "put value"

	_, err := s.pool.Exec(ctx,
		"INSERT INTO mappings(key, value) VALUES($1, $2) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value",
		key, value)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Store) PutIfAbsent(ctx context.Context, key string, value string) (bool, error) {
	const op = "insert value"

	tag, err := s.pool.Exec(ctx,
		"INSERT INTO mappings(key, value) VALUES($1, $2) ON CONFLICT (key) DO NOTHING",
		key, value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return tag.RowsAffected() == 1, nil
}

func (s *Store) List(ctx context.Context) ([]string, error) {
	const op = "list keys"

	rows, err := s.pool.Query(ctx, "SELECT key FROM mappings ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if keys == nil {
		keys = []string{}
	}
	return keys, nil
}
