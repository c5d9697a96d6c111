// internal/storage/storage.go
package storage

import "github.com/OCAP2/panopath/pkg/core"

// Backend is the interface all annotation stores must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Paths
	SavePath(p core.Path) error
	ClearPaths() error
	LoadPaths() ([]core.Path, error)
}

// Flusher is implemented by backends that buffer writes.
type Flusher interface {
	Flush() error
}
