// internal/session/export.go
package session

import (
	"time"

	"github.com/OCAP2/panopath/internal/export"
)

// Artifacts are the two independent export outputs.
type Artifacts struct {
	Mode     export.Mode
	Image    []byte // PNG
	Document export.Document
}

// ImageName is the download filename of the PNG.
func (a Artifacts) ImageName() string {
	return export.ImageFilename(a.Mode, a.createdAt())
}

// DocumentName is the download filename of the path document.
func (a Artifacts) DocumentName() string {
	return export.DocumentFilename(a.createdAt(), false)
}

func (a Artifacts) createdAt() time.Time {
	return time.UnixMilli(a.Document.Timestamp)
}

// Export rasterizes the panorama (plus paths in with-paths mode) and builds
// the path document. The state is captured under the lock; rasterization
// runs outside it so pointer events keep flowing.
func (s *Session) Export(mode export.Mode) (*Artifacts, error) {
	if !s.exporting.CompareAndSwap(false, true) {
		return nil, ErrExportInProgress
	}
	defer s.exporting.Store(false)

	s.mu.Lock()
	base := s.panorama
	paths := s.pathsLocked()
	opts := s.render
	now := s.now()
	s.mu.Unlock()

	if base == nil {
		return nil, ErrNoPanorama
	}

	doc, err := export.Build(paths, opts.Width, opts.Height, now)
	if err != nil {
		return nil, err
	}
	img, err := export.RenderImage(base, doc, mode, opts)
	if err != nil {
		return nil, err
	}
	return &Artifacts{Mode: mode, Image: img, Document: doc}, nil
}

// ExportDocument builds only the path document. It needs no panorama.
func (s *Session) ExportDocument() (export.Document, error) {
	s.mu.Lock()
	paths := s.pathsLocked()
	opts := s.render
	now := s.now()
	s.mu.Unlock()

	return export.Build(paths, opts.Width, opts.Height, now)
}
