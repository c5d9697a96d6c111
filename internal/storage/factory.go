// internal/storage/factory.go
package storage

import (
	"fmt"
	"log/slog"

	"github.com/OCAP2/panopath/internal/config"
	"github.com/OCAP2/panopath/internal/storage/memory"
	"github.com/OCAP2/panopath/internal/storage/postgres"
	sqlitestorage "github.com/OCAP2/panopath/internal/storage/sqlite"

	"github.com/rs/zerolog"
)

// NewBackend creates a storage backend based on configuration. The returned
// backend still needs Init.
func NewBackend(cfg config.StorageConfig, logger *slog.Logger, zl zerolog.Logger) (Backend, error) {
	switch cfg.Type {
	case "postgres":
		b, err := postgres.New(postgres.Config{
			DB:            cfg.DB,
			FallbackPath:  cfg.SQLite.Path,
			BatchSize:     cfg.BatchSize,
			FlushInterval: cfg.FlushInterval,
		}, logger, zl)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "sqlite":
		b, err := sqlitestorage.New(sqlitestorage.Config{
			Path:          cfg.SQLite.Path,
			BatchSize:     cfg.BatchSize,
			FlushInterval: cfg.FlushInterval,
		}, logger, zl)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "memory", "":
		return memory.New(cfg.Memory), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
