// internal/database/database_test.go
package database

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/OCAP2/panopath/internal/config"
	"github.com/OCAP2/panopath/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectSQLite_Setup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.db")
	m := NewManager(zerolog.New(io.Discard), path)

	require.NoError(t, m.ConnectSQLite())
	t.Cleanup(func() { m.Close() })
	require.True(t, m.IsValid)
	require.NoError(t, m.Setup())

	assert.True(t, m.DB.Migrator().HasTable(&model.AnnotatedPath{}))

	var info model.PanoInfo
	require.NoError(t, m.DB.First(&info).Error)
	assert.Equal(t, SchemaVersion, info.SchemaVersion)

	// second setup keeps the single info row
	require.NoError(t, m.Setup())
	var count int64
	require.NoError(t, m.DB.Model(&model.PanoInfo{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestConnectPostgres_FallsBackToSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fallback.db")
	m := NewManager(zerolog.New(io.Discard), path)

	err := m.ConnectPostgres(config.DBConfig{
		Host: "127.0.0.1", Port: "1", Username: "u", Password: "p", Database: "d",
	})
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	assert.True(t, m.UsingFallback)
	assert.Equal(t, "sqlite", m.DB.Name())
}

func TestSetup_Invalid(t *testing.T) {
	m := NewManager(zerolog.New(io.Discard), "")
	assert.Error(t, m.Setup())
	assert.NoError(t, m.Close())
}
