package postgres_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/OCAP2/panopath/internal/config"
	"github.com/OCAP2/panopath/internal/storage"
	"github.com/OCAP2/panopath/internal/storage/postgres"
	"github.com/OCAP2/panopath/pkg/core"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ storage.Backend = (*postgres.Backend)(nil)

func TestNew_FallsBackToSQLite(t *testing.T) {
	cfg := postgres.Config{
		DB: config.DBConfig{
			Host:     "127.0.0.1",
			Port:     "1",
			Username: "nobody",
			Database: "panopath",
		},
		FallbackPath:  filepath.Join(t.TempDir(), "fallback.db"),
		FlushInterval: time.Hour,
	}

	b, err := postgres.New(cfg, nil, zerolog.Nop())
	require.NoError(t, err)
	assert.True(t, b.UsingFallback())

	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.SavePath(core.Path{
		ID:        uuid.New(),
		Category:  core.CategoryElectrical,
		Strategy:  core.StrategySegmented,
		Points:    []core.Vec3{{X: 500}, {Z: 500}},
		CreatedAt: time.Now().UTC(),
	}))
	got, err := b.LoadPaths()
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
