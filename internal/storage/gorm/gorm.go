// internal/storage/gorm/gorm.go

// Package gormstorage implements the storage.Backend interface on top of any
// GORM dialect, with an internal queue and a background DB writer goroutine.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/OCAP2/panopath/internal/database"
	"github.com/OCAP2/panopath/internal/model"
	"github.com/OCAP2/panopath/internal/model/convert"
	"github.com/OCAP2/panopath/internal/queue"
	"github.com/OCAP2/panopath/pkg/core"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultBatchSize     = 100
	defaultFlushInterval = time.Second
)

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB            *gorm.DB
	Logger        *slog.Logger
	BatchSize     int
	FlushInterval time.Duration
}

// Backend implements storage.Backend with queue-based batch writes.
type Backend struct {
	deps  Dependencies
	paths *queue.Queue[model.AnnotatedPath]

	// writeMu serializes the writer goroutine with Flush and ClearPaths.
	writeMu sync.Mutex

	stopChan  chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a new GORM storage backend. SavePath may be called before Init;
// rows stay queued until the writer starts.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.BatchSize <= 0 {
		deps.BatchSize = defaultBatchSize
	}
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = defaultFlushInterval
	}
	return &Backend{
		deps:  deps,
		paths: queue.New[model.AnnotatedPath](),
	}
}

// Init runs schema migration and starts the DB writer goroutine.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return errors.New("gorm storage: no database")
	}
	if err := database.Migrate(b.deps.DB); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}

	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})
	b.startDBWriter()

	b.deps.Logger.Info("Storage ready", "dialect", b.deps.DB.Name())
	return nil
}

// Close stops the writer and flushes whatever is still queued.
func (b *Backend) Close() error {
	var err error
	b.closeOnce.Do(func() {
		if b.stopChan != nil {
			close(b.stopChan)
			<-b.done
		}
		if b.deps.DB != nil {
			err = b.Flush()
		}
	})
	return err
}

// SavePath converts a path to its row form and queues it.
func (b *Backend) SavePath(p core.Path) error {
	row, err := convert.PathToModel(p)
	if err != nil {
		return err
	}
	b.paths.Push(row)
	return nil
}

// ClearPaths drops queued rows and deletes every stored path.
func (b *Backend) ClearPaths() error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	dropped := b.paths.Clear()
	res := b.deps.DB.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.AnnotatedPath{})
	if res.Error != nil {
		return fmt.Errorf("failed to clear paths: %w", res.Error)
	}
	b.deps.Logger.Info("Cleared stored paths", "rows", res.RowsAffected, "queued", dropped)
	return nil
}

// LoadPaths flushes pending writes and returns stored paths in creation order.
func (b *Backend) LoadPaths() ([]core.Path, error) {
	if err := b.Flush(); err != nil {
		return nil, err
	}
	var rows []model.AnnotatedPath
	if err := b.deps.DB.Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load paths: %w", err)
	}
	return convert.ModelsToPaths(rows)
}

// Flush writes every queued row now.
func (b *Backend) Flush() error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	for !b.paths.Empty() {
		if err := writeQueue(b.deps.DB, b.paths, b.deps.BatchSize); err != nil {
			b.deps.Logger.Error("Error writing paths", "error", err, "pending", b.paths.Len())
			return err
		}
	}
	return nil
}

// Pending is the number of rows not yet written.
func (b *Backend) Pending() int {
	return b.paths.Len()
}

// writeQueue writes up to n items from a queue in one transaction. Failed
// batches go back to the front of the queue. Rows whose path id already
// exists are skipped, so replaying an import is harmless.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], n int) error {
	items := q.PopN(n)
	if len(items) == 0 {
		return nil
	}

	tx := db.Begin()
	if tx.Error != nil {
		q.Requeue(items...)
		return tx.Error
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&items).Error; err != nil {
		tx.Rollback()
		q.Requeue(items...)
		return err
	}
	if err := tx.Commit().Error; err != nil {
		q.Requeue(items...)
		return err
	}
	return nil
}

// startDBWriter starts the background goroutine that periodically drains the queue.
func (b *Backend) startDBWriter() {
	go func() {
		defer close(b.done)
		ticker := time.NewTicker(b.deps.FlushInterval)
		defer ticker.Stop()

		for {
			select {
			case <-b.stopChan:
				return
			case <-ticker.C:
				// errors are logged by Flush and the rows retried next tick
				_ = b.Flush()
			}
		}
	}()
}
