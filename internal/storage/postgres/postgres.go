// internal/storage/postgres/postgres.go

// Package postgres implements the storage.Backend interface on PostgreSQL.
// When the server is unreachable it falls back to a local SQLite file so
// annotations are never dropped.
package postgres

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/OCAP2/panopath/internal/config"
	"github.com/OCAP2/panopath/internal/database"
	gormstorage "github.com/OCAP2/panopath/internal/storage/gorm"

	"github.com/rs/zerolog"
)

// Config holds configuration for the Postgres storage backend.
type Config struct {
	DB            config.DBConfig
	FallbackPath  string
	BatchSize     int
	FlushInterval time.Duration
}

// Backend wraps the GORM backend with a Postgres connection.
type Backend struct {
	*gormstorage.Backend
	manager *database.Manager
}

// New connects to Postgres, or to the fallback SQLite file, and creates the backend.
func New(cfg Config, logger *slog.Logger, zl zerolog.Logger) (*Backend, error) {
	manager := database.NewManager(zl, cfg.FallbackPath)
	if err := manager.ConnectPostgres(cfg.DB); err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{
			DB:            manager.DB,
			Logger:        logger,
			BatchSize:     cfg.BatchSize,
			FlushInterval: cfg.FlushInterval,
		}),
		manager: manager,
	}, nil
}

// UsingFallback reports whether writes go to the local SQLite file.
func (b *Backend) UsingFallback() bool {
	return b.manager.UsingFallback
}

// Close flushes the embedded GORM backend and closes the connection pool.
func (b *Backend) Close() error {
	err := b.Backend.Close()
	if cerr := b.manager.Close(); err == nil {
		err = cerr
	}
	return err
}
