package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/undeadops/kvlinks/internal/mapping"
	"github.com/undeadops/kvlinks/internal/store"
	"github.com/undeadops/kvlinks/internal/store/memory"
)

// countingStore records how many times each store call was made.
type countingStore struct {
	*memory.Store
	gets, puts int
}

func (c *countingStore) Get(ctx context.Context, key string) (string, error) {
	c.gets++
	return c.Store.Get(ctx, key)
}

func (c *countingStore) PutIfAbsent(ctx context.Context, key, value string) (bool, error) {
	c.puts++
	return c.Store.PutIfAbsent(ctx, key, value)
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, error) {
	return "", errors.New("store unavailable")
}

func (failingStore) Put(context.Context, string, string) error {
	return errors.New("store unavailable")
}

func (failingStore) List(context.Context) ([]string, error) {
	return nil, errors.New("store unavailable")
}

func newTestRouter(s store.Store) http.Handler {
	return Router(mapping.New(s), zerolog.Nop())
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestScenario(t *testing.T) {
	h := newTestRouter(memory.New())
	const body = `{"key":"abc","value":"https://example.com"}`

	rec := do(t, h, http.MethodPost, "/create", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.JSONEq(t, `{"message":"created","shortUrl":"https://yourdomain.com/abc"}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/create", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Key already exists", rec.Body.String())

	rec = do(t, h, http.MethodGet, "/abc", "")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "https://example.com", rec.Header().Get("Location"))

	rec = do(t, h, http.MethodGet, "/list", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"key":"abc","value":"https://example.com"}]`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found", rec.Body.String())
}

func TestCreateMapping(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "malformed json",
			body:       `{"key":`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "Invalid request body",
		},
		{
			name:       "trailing garbage",
			body:       `{"key":"abc","value":"https://example.com"} trailing garbage`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "Invalid request body",
		},
		{
			name:       "second json value",
			body:       `{"key":"abc","value":"https://example.com"}{}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "Invalid request body",
		},
		{
			name:       "wrong field type",
			body:       `{"key":1,"value":"https://example.com"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "Invalid request body",
		},
		{
			name:       "missing key",
			body:       `{"value":"https://example.com"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "Key and value are required",
		},
		{
			name:       "empty value",
			body:       `{"key":"abc","value":""}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "Key and value are required",
		},
		{
			name:       "invalid url",
			body:       `{"key":"abc","value":"not a url"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "Invalid URL format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &countingStore{Store: memory.New()}
			h := newTestRouter(s)

			rec := do(t, h, http.MethodPost, "/create", tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
			assert.Zero(t, s.puts)

			keys, err := s.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, keys)
		})
	}

	t.Run("trailing whitespace is accepted", func(t *testing.T) {
		rec := do(t, newTestRouter(memory.New()), http.MethodPost, "/create",
			"{\"key\":\"abc\",\"value\":\"https://example.com\"}\n\t ")

		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("ignores content type", func(t *testing.T) {
		h := newTestRouter(memory.New())
		req := httptest.NewRequest(http.MethodPost, "/create",
			strings.NewReader(`{"key":"k","value":"https://example.com"}`))
		req.Header.Set("Content-Type", "text/plain")
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		h := newTestRouter(failingStore{})

		rec := do(t, h, http.MethodPost, "/create", `{"key":"abc","value":"https://example.com"}`)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.True(t, strings.HasPrefix(rec.Body.String(), "Error: "))
		assert.Contains(t, rec.Body.String(), "store unavailable")
	})
}

func TestListMappings(t *testing.T) {
	t.Run("empty store is an empty array", func(t *testing.T) {
		rec := do(t, newTestRouter(memory.New()), http.MethodGet, "/list", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("any method", func(t *testing.T) {
		s := memory.New()
		require.NoError(t, s.Put(context.Background(), "a", "https://a.example.com"))

		rec := do(t, newTestRouter(s), http.MethodDelete, "/list", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[{"key":"a","value":"https://a.example.com"}]`, rec.Body.String())
	})

	t.Run("store failure", func(t *testing.T) {
		rec := do(t, newTestRouter(failingStore{}), http.MethodGet, "/list", "")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "store unavailable")
	})
}

func TestRedirect(t *testing.T) {
	t.Run("root serves status without lookup", func(t *testing.T) {
		s := &countingStore{Store: memory.New()}

		rec := do(t, newTestRouter(s), http.MethodGet, "/", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, StatusMessage, rec.Body.String())
		assert.Zero(t, s.gets)
	})

	t.Run("nested path is one key", func(t *testing.T) {
		s := memory.New()
		require.NoError(t, s.Put(context.Background(), "docs/intro", "https://example.com/docs"))

		rec := do(t, newTestRouter(s), http.MethodGet, "/docs/intro", "")

		assert.Equal(t, http.StatusMovedPermanently, rec.Code)
		assert.Equal(t, "https://example.com/docs", rec.Header().Get("Location"))
	})

	t.Run("non-post create resolves key create", func(t *testing.T) {
		s := memory.New()
		require.NoError(t, s.Put(context.Background(), "create", "https://example.com/create"))

		rec := do(t, newTestRouter(s), http.MethodGet, "/create", "")

		assert.Equal(t, http.StatusMovedPermanently, rec.Code)
		assert.Equal(t, "https://example.com/create", rec.Header().Get("Location"))
	})

	t.Run("store failure", func(t *testing.T) {
		rec := do(t, newTestRouter(failingStore{}), http.MethodGet, "/abc", "")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "store unavailable")
	})
}
