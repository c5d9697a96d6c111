package sqlitestorage_test

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/OCAP2/panopath/internal/storage"
	sqlitestorage "github.com/OCAP2/panopath/internal/storage/sqlite"
	"github.com/OCAP2/panopath/pkg/core"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ storage.Backend = (*sqlitestorage.Backend)(nil)

func TestBackend_PersistsAcrossReopen(t *testing.T) {
	cfg := sqlitestorage.Config{Path: filepath.Join(t.TempDir(), "annotations.db"), FlushInterval: time.Hour}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	b, err := sqlitestorage.New(cfg, logger, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, b.Init())

	p := core.Path{
		ID:        uuid.New(),
		Category:  core.CategoryGas,
		Strategy:  core.StrategyTube,
		Points:    []core.Vec3{{X: 500}, {Y: 300, X: 400}, {Z: -500}},
		CreatedAt: time.Date(2026, 2, 2, 2, 2, 2, 0, time.UTC),
	}
	require.NoError(t, b.SavePath(p))
	require.NoError(t, b.Close())

	b, err = sqlitestorage.New(cfg, logger, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, b.Init())
	defer b.Close()

	got, err := b.LoadPaths()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, p.ID, got[0].ID)
	assert.Equal(t, core.StrategyTube, got[0].Strategy)
	assert.True(t, p.CreatedAt.Equal(got[0].CreatedAt))
}

func TestNew_BadPath(t *testing.T) {
	cfg := sqlitestorage.Config{Path: filepath.Join(t.TempDir(), "missing", "dir", "x.db")}
	_, err := sqlitestorage.New(cfg, nil, zerolog.Nop())
	assert.Error(t, err)
}
