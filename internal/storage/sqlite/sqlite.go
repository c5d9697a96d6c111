// internal/storage/sqlite/sqlite.go

// Package sqlitestorage implements the storage.Backend interface on a SQLite
// file. It wraps the GORM backend via composition; the only SQLite-specific
// concern is opening and closing the file.
package sqlitestorage

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/OCAP2/panopath/internal/database"
	gormstorage "github.com/OCAP2/panopath/internal/storage/gorm"

	"github.com/rs/zerolog"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	Path          string // empty means a shared in-memory database
	BatchSize     int
	FlushInterval time.Duration
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	manager *database.Manager
}

// New opens the SQLite file and creates the backend.
func New(cfg Config, logger *slog.Logger, zl zerolog.Logger) (*Backend, error) {
	manager := database.NewManager(zl, cfg.Path)
	if err := manager.ConnectSQLite(); err != nil {
		return nil, fmt.Errorf("failed to open SQLite DB: %w", err)
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

// Close flushes the embedded GORM backend and closes the file.
func (b *Backend) Close() error {
	err := b.Backend.Close()
	if cerr := b.manager.Close(); err == nil {
		err = cerr
	}
	return err
}
