// Package mapping implements the lifecycle of key -> URL mappings on top of a
// key-value store: creation, listing and resolution.
package mapping

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/undeadops/kvlinks/internal/store"
)

const (
	// DefaultBaseURL is the origin short URLs are built on.
	DefaultBaseURL = "https://yourdomain.com"

	// CreatedMessage is returned with every successful create.
	CreatedMessage = "created"

	defaultListWorkers = 16
)

// Mapping is a single key -> URL pair.
type Mapping struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Service creates, lists and resolves mappings held in a store.Store. It keeps
// no state of its own between calls and is safe for concurrent use.
type Service struct {
	store       store.Store
	baseURL     string
	listWorkers int
}

// Option configures a Service.
type Option func(*Service)

// WithBaseURL sets the origin used to build short URLs.
func WithBaseURL(baseURL string) Option {
	return func(s *Service) {
		s.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithListWorkers bounds the number of concurrent lookups made by List.
func WithListWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.listWorkers = n
		}
	}
}

// New returns a Service over s. Short URLs default to DefaultBaseURL.
func New(s store.Store, opts ...Option) *Service {
	svc := &Service{
		store:       s,
		baseURL:     DefaultBaseURL,
		listWorkers: defaultListWorkers,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// ShortURL builds the public short URL for key.
func (s *Service) ShortURL(key string) string {
	return s.baseURL + "/" + key
}

// Create validates and stores a new mapping and returns its short URL.
//
// When the store implements store.Inserter the existence check and the write
// are one atomic call. Otherwise two concurrent creates of the same key may
// both pass the Get and the later Put wins.
func (s *Service) Create(ctx context.Context, key, value string) (string, error) {
	if key == "" || value == "" {
		return "", ErrMissingField
	}

	if err := ValidateURL(value); err != nil {
		return "", err
	}

	if ins, ok := s.store.(store.Inserter); ok {
		created, err := ins.PutIfAbsent(ctx, key, value)
		if err != nil {
			return "", storeFailure("put", err)
		}
		if !created {
			return "", ErrKeyConflict
		}
		return s.ShortURL(key), nil
	}

	_, err := s.store.Get(ctx, key)
	switch {
	case err == nil:
		return "", ErrKeyConflict
	case !errors.Is(err, store.ErrNotFound):
		return "", storeFailure("get", err)
	}

	if err := s.store.Put(ctx, key, value); err != nil {
		return "", storeFailure("put", err)
	}

	return s.ShortURL(key), nil
}

// List returns every mapping in store enumeration order. Values are looked up
// concurrently; the first failure cancels the rest and no partial result is
// returned. Keys that disappear between enumeration and lookup are skipped.
func (s *Service) List(ctx context.Context) ([]Mapping, error) {
	keys, err := s.store.List(ctx)
	if err != nil {
		return nil, storeFailure("list", err)
	}

	values := make([]string, len(keys))
	found := make([]bool, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.listWorkers)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			value, err := s.store.Get(gctx, key)
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			values[i] = value
			found[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, storeFailure("get", err)
	}

	mappings := make([]Mapping, 0, len(keys))
	for i, key := range keys {
		if found[i] {
			mappings = append(mappings, Mapping{Key: key, Value: values[i]})
		}
	}
	return mappings, nil
}

// Resolve returns the URL stored under key.
func (s *Service) Resolve(ctx context.Context, key string) (string, error) {
	value, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", storeFailure("get", err)
	}
	return value, nil
}

// ValidateURL accepts absolute URLs. Hierarchical web schemes must also name a host.
func ValidateURL(value string) error {
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" {
		return ErrInvalidURL
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https", "ws", "wss", "ftp":
		if u.Host == "" {
			return ErrInvalidURL
		}
	}

	return nil
}
