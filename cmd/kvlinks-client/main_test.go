package main

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/undeadops/kvlinks/internal/api"
	"github.com/undeadops/kvlinks/internal/client"
	"github.com/undeadops/kvlinks/internal/mapping"
	"github.com/undeadops/kvlinks/internal/store/memory"
)

func TestRun(t *testing.T) {
	ctx := context.Background()
	server := httptest.NewServer(api.Router(mapping.New(memory.New()), zerolog.Nop()))
	t.Cleanup(server.Close)
	c := client.New(client.WithServerAddress(server.URL))

	t.Run("missing command", func(t *testing.T) {
		err := run(ctx, c, nil)
		assert.EqualError(t, err, "missing command")
	})

	t.Run("bad command", func(t *testing.T) {
		err := run(ctx, c, []string{"create", "only-key"})
		assert.ErrorContains(t, err, "bad command")
	})

	t.Run("create list resolve", func(t *testing.T) {
		require.NoError(t, run(ctx, c, []string{"create", "abc", "https://example.com"}))
		require.NoError(t, run(ctx, c, []string{"list"}))
		require.NoError(t, run(ctx, c, []string{"resolve", "abc"}))
	})

	t.Run("resolve unknown key", func(t *testing.T) {
		err := run(ctx, c, []string{"resolve", "missing"})
		assert.ErrorIs(t, err, client.ErrNotFound)
	})
}

func TestGetEnv(t *testing.T) {
	t.Setenv("KVLINKS_SERVER", "http://kvlinks.test")

	assert.Equal(t, "http://kvlinks.test", getEnv("KVLINKS_SERVER", "http://localhost:5000"))
	assert.Equal(t, "fallback", getEnv("KVLINKS_CLIENT_UNSET", "fallback"))
}
