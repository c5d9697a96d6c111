// internal/export/files.go
package export

import (
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ImageFilename is the download name of a raster export.
func ImageFilename(mode Mode, t time.Time) string {
	return fmt.Sprintf("panorama_%s_%d.png", mode, t.UnixMilli())
}

// DocumentFilename is the download name of a path document.
func DocumentFilename(t time.Time, compressed bool) string {
	if compressed {
		return fmt.Sprintf("paths_%d.json.gz", t.UnixMilli())
	}
	return fmt.Sprintf("paths_%d.json", t.UnixMilli())
}

// Config controls where the CLI writes exports
type Config struct {
	OutputDir      string
	CompressOutput bool
}

// Exporter writes export artifacts to disk
type Exporter struct {
	cfg Config
}

// NewExporter creates an exporter for cfg
func NewExporter(cfg Config) *Exporter {
	return &Exporter{cfg: cfg}
}

// Result lists the files written by WriteFiles
type Result struct {
	ImagePath    string
	DocumentPath string
}

// WriteFiles writes the PNG and the path document. Either may be omitted by
// passing a nil image or a nil document.
func (e *Exporter) WriteFiles(png []byte, doc *Document, mode Mode, now time.Time) (Result, error) {
	var res Result
	if err := os.MkdirAll(e.cfg.OutputDir, 0755); err != nil {
		return res, fmt.Errorf("failed to create output directory: %w", err)
	}

	if png != nil {
		res.ImagePath = filepath.Join(e.cfg.OutputDir, ImageFilename(mode, now))
		if err := os.WriteFile(res.ImagePath, png, 0644); err != nil {
			return res, fmt.Errorf("failed to write image: %w", err)
		}
	}

	if doc != nil {
		data, err := Marshal(*doc)
		if err != nil {
			return res, fmt.Errorf("failed to encode document: %w", err)
		}
		res.DocumentPath = filepath.Join(e.cfg.OutputDir, DocumentFilename(now, e.cfg.CompressOutput))
		if e.cfg.CompressOutput {
			err = writeGzip(res.DocumentPath, data)
		} else {
			err = os.WriteFile(res.DocumentPath, data, 0644)
		}
		if err != nil {
			return res, fmt.Errorf("failed to write document: %w", err)
		}
	}

	return res, nil
}

func writeGzip(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	if _, err := gz.Write(data); err != nil {
		return err
	}
	return gz.Close()
}
