package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"discovery/internal/config"
	"discovery/internal/storage"
)

func TestNew_DisabledCacheNeedsNoStore(t *testing.T) {
	cfg := config.FromEnv()
	cfg.CacheEnabled = false
	cfg.CacheStore = "bogus"

	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()
	assert.False(t, a.Cache.Enabled())
	assert.NotNil(t, a.NewSession())
	assert.NotNil(t, a.NewConversation())
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	cfg := config.FromEnv()

	cfg.CacheStore = config.StoreFile
	cfg.CacheDir = t.TempDir()
	s, closer, err := openStore(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, closer)
	assert.IsType(t, &storage.FileStore{}, s)

	cfg.CacheStore = config.StoreNone
	s, _, err = openStore(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, s)

	cfg.CacheStore = "tape"
	_, _, err = openStore(ctx, cfg, zap.NewNop())
	assert.ErrorContains(t, err, "unknown cache store")

	cfg.CacheStore = config.StoreS3
	cfg.MinIO.Endpoint = ""
	_, _, err = openStore(ctx, cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestNew_FileCachePersists(t *testing.T) {
	cfg := config.FromEnv()
	cfg.CacheEnabled = true
	cfg.CacheStore = config.StoreFile
	cfg.CacheDir = t.TempDir()

	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	a.Cache.SetImage(context.Background(), "Louvre", "https://upload.wikimedia.org/louvre.jpg")

	b, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	url, ok := b.Cache.Image("Louvre")
	require.True(t, ok)
	assert.Equal(t, "https://upload.wikimedia.org/louvre.jpg", url)
}
