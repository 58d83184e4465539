package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("not found")

// Store - represents a generic key-value store interface
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key string, value string) error
	// List returns every key in the store. Order is backend defined.
	List(ctx context.Context) ([]string, error)
}

// Inserter is implemented by stores that can write a key only if it is absent
// in a single atomic step. ok is false when the key already existed.
type Inserter interface {
	PutIfAbsent(ctx context.Context, key string, value string) (ok bool, err error)
}
