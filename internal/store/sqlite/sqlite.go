package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/undeadops/kvlinks/internal/store"
)

// Store is a store.Store backed by a SQLite database.
type Store struct {
	db *sql.DB
	l  *sync.Mutex // serializes access from concurrent requests
}

// compile-time assertion that we implement the store interfaces
var (
	_ store.Store    = &Store{}
	_ store.Inserter = &Store{}
)

// New opens the SQLite database at dsn and creates the mappings table if needed.
func New(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open SQLite database: %w", err)
	}

	_, err = db.ExecContext(ctx, `create table if not exists mappings (
		key   text primary key,
		value text not null
	)`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("could not create mappings table: %w", err)
	}

	return &Store{
		db: db,
		l:  new(sync.Mutex),
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the value mapped to key.
func (s *Store) Get(ctx context.Context, key string) (value string, err error) {
	s.l.Lock()
	defer s.l.Unlock()

	err = s.db.QueryRowContext(ctx, "select value from mappings where key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", store.ErrNotFound
		}
		return "", fmt.Errorf("error looking up key %q: %w", key, err)
	}

	return value, nil
}

// Put writes value under key, replacing any previous value.
func (s *Store) Put(ctx context.Context, key string, value string) error {
	s.l.Lock()
	defer s.l.Unlock()

	_, err := s.db.ExecContext(ctx, "insert or replace into mappings (key, value) values (?, ?)", key, value)
	if err != nil {
		return fmt.Errorf("error storing key %q: %w", key, err)
	}

	return nil
}

// PutIfAbsent inserts the mapping unless key already exists.
func (s *Store) PutIfAbsent(ctx context.Context, key string, value string) (bool, error) {
	s.l.Lock()
	defer s.l.Unlock()

	res, err := s.db.ExecContext(ctx, "insert or ignore into mappings (key, value) values (?, ?)", key, value)
	if err != nil {
		return false, fmt.Errorf("error inserting key %q: %w", key, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error inserting key %q: %w", key, err)
	}

	return n == 1, nil
}

// List returns all keys ordered by insertion.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.l.Lock()
	defer s.l.Unlock()

	rows, err := s.db.QueryContext(ctx, "select key from mappings order by rowid")
	if err != nil {
		return nil, fmt.Errorf("error listing keys: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("error reading key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error listing keys: %w", err)
	}

	return keys, nil
}
