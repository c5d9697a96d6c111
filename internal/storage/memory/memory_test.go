// internal/storage/memory/memory_test.go
package memory

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/OCAP2/panopath/internal/config"
	"github.com/OCAP2/panopath/pkg/core"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPath(cat core.Category) core.Path {
	return core.Path{
		ID:        uuid.New(),
		Category:  cat,
		Strategy:  core.StrategySegmented,
		Points:    []core.Vec3{{X: 500}, {Y: 500}},
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestBackend_PersistsAcrossRestarts(t *testing.T) {
	for _, compress := range []bool{false, true} {
		t.Run(map[bool]string{false: "plain", true: "gzip"}[compress], func(t *testing.T) {
			cfg := config.MemoryConfig{OutputDir: t.TempDir(), CompressOutput: compress}

			b := New(cfg)
			require.NoError(t, b.Init())
			p1, p2 := testPath(core.CategoryElectrical), testPath(core.CategoryGas)
			require.NoError(t, b.SavePath(p1))
			require.NoError(t, b.SavePath(p2))
			require.NoError(t, b.Close())

			_, err := os.Stat(b.FilePath())
			require.NoError(t, err)
			if compress {
				assert.Equal(t, ".gz", filepath.Ext(b.FilePath()))
			}

			reopened := New(cfg)
			require.NoError(t, reopened.Init())
			got, err := reopened.LoadPaths()
			require.NoError(t, err)
			assert.Equal(t, []core.Path{p1, p2}, got)
		})
	}
}

func TestBackend_ClearPaths(t *testing.T) {
	cfg := config.MemoryConfig{OutputDir: t.TempDir()}
	b := New(cfg)
	require.NoError(t, b.Init())
	require.NoError(t, b.SavePath(testPath(core.CategoryAirCon)))
	require.NoError(t, b.ClearPaths())

	got, err := b.LoadPaths()
	require.NoError(t, err)
	assert.Empty(t, got)

	reopened := New(cfg)
	require.NoError(t, reopened.Init())
	got, err = reopened.LoadPaths()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBackend_NoOutputDir(t *testing.T) {
	b := New(config.MemoryConfig{})
	require.NoError(t, b.Init())
	require.NoError(t, b.SavePath(testPath(core.CategoryWaste)))

	got, err := b.LoadPaths()
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestBackend_FailedWriteRollsBack(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	b := New(config.MemoryConfig{OutputDir: dir})
	require.NoError(t, b.Init())
	require.NoError(t, b.SavePath(testPath(core.CategoryGas)))

	require.NoError(t, os.RemoveAll(dir))
	assert.Error(t, b.SavePath(testPath(core.CategoryWaste)))
	assert.Error(t, b.ClearPaths())

	got, err := b.LoadPaths()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, core.CategoryGas, got[0].Category)
}

func TestBackend_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "annotations.json"), []byte("{"), 0644))
	assert.Error(t, New(config.MemoryConfig{OutputDir: dir}).Init())
}

func TestBackend_LoadPathsReturnsCopy(t *testing.T) {
	b := New(config.MemoryConfig{})
	require.NoError(t, b.SavePath(testPath(core.CategoryWaste)))
	got, _ := b.LoadPaths()
	got[0].Category = core.CategoryGas

	again, _ := b.LoadPaths()
	assert.Equal(t, core.CategoryWaste, again[0].Category)
}
