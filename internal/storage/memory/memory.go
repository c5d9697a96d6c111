// internal/storage/memory/memory.go

// Package memory keeps annotations in memory and mirrors them to a JSON
// file (optionally gzipped) in the output directory after every change.
package memory

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/OCAP2/panopath/internal/config"
	"github.com/OCAP2/panopath/pkg/core"
)

const baseName = "annotations.json"

// fileFormat is the on-disk layout
type fileFormat struct {
	Version string      `json:"version"`
	Paths   []core.Path `json:"paths"`
}

// Backend stores paths in memory and persists them to a JSON file
type Backend struct {
	cfg   config.MemoryConfig
	paths []core.Path
	mu    sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{cfg: cfg}
}

// FilePath is where the backend mirrors its state.
func (b *Backend) FilePath() string {
	name := baseName
	if b.cfg.CompressOutput {
		name += ".gz"
	}
	return filepath.Join(b.cfg.OutputDir, name)
}

// Init creates the output directory and loads any previous file.
func (b *Backend) Init() error {
	if b.cfg.OutputDir == "" {
		return nil
	}
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	paths, err := b.readFile()
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.paths = paths
	b.mu.Unlock()
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// SavePath appends a finalized path. Memory and file stay in step: a failed
// write leaves the path out of both.
func (b *Backend) SavePath(p core.Path) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	prev := b.paths
	b.paths = append(b.paths[:len(prev):len(prev)], p)
	if err := b.writeFile(); err != nil {
		b.paths = prev
		return err
	}
	return nil
}

// ClearPaths removes every stored path
func (b *Backend) ClearPaths() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	prev := b.paths
	b.paths = nil
	if err := b.writeFile(); err != nil {
		b.paths = prev
		return err
	}
	return nil
}

// LoadPaths returns a copy of all stored paths in insertion order
func (b *Backend) LoadPaths() ([]core.Path, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.Path(nil), b.paths...), nil
}

func (b *Backend) readFile() ([]core.Path, error) {
	f, err := os.Open(b.FilePath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open annotations: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if b.cfg.CompressOutput {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	var data fileFormat
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode annotations: %w", err)
	}
	return data.Paths, nil
}

// writeFile must be called with b.mu held. It writes to a temp file and
// renames it so a crash never leaves a truncated file behind.
func (b *Backend) writeFile() error {
	if b.cfg.OutputDir == "" {
		return nil
	}

	target := b.FilePath()
	tmp, err := os.CreateTemp(b.cfg.OutputDir, baseName+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	data := fileFormat{Version: "1", Paths: b.paths}
	if data.Paths == nil {
		data.Paths = []core.Path{}
	}

	if b.cfg.CompressOutput {
		gz := gzip.NewWriter(tmp)
		if err := json.NewEncoder(gz).Encode(data); err != nil {
			tmp.Close()
			return err
		}
		if err := gz.Close(); err != nil {
			tmp.Close()
			return err
		}
	} else if err := json.NewEncoder(tmp).Encode(data); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), target)
}
