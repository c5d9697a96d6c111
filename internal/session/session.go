// internal/session/session.go

// Package session holds the ViewerSession: the single owner of all mutable
// viewer state. Every operation takes the session explicitly and returns the
// mesh intents the adapter has to execute.
package session

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/OCAP2/panopath/internal/export"
	"github.com/OCAP2/panopath/internal/geo"
	"github.com/OCAP2/panopath/internal/scene"
	"github.com/OCAP2/panopath/pkg/core"
)

var (
	// ErrNoPanorama is returned by Export before any texture (real or placeholder) is set.
	ErrNoPanorama = errors.New("no panorama loaded")
	// ErrExportInProgress is returned when an export is requested while another
	// one is still rasterizing. Callers drop the request silently.
	ErrExportInProgress = errors.New("export already in progress")
	// ErrTooFewPoints aliases the finalizer's error so callers need one import.
	ErrTooFewPoints = scene.ErrTooFewPoints
)

// PanoramaState describes the texture currently on the sphere.
type PanoramaState int

const (
	PanoramaNone PanoramaState = iota
	PanoramaLoaded
	PanoramaPlaceholder
)

func (p PanoramaState) String() string {
	switch p {
	case PanoramaLoaded:
		return "loaded"
	case PanoramaPlaceholder:
		return "placeholder"
	default:
		return "none"
	}
}

// Config configures a new session.
type Config struct {
	Strategy    core.Strategy
	Scene       scene.Options
	Render      export.RenderOptions
	PanoramaURL string // where the adapter fetches the current texture
	Category    core.Category
	AutoRotate  bool
}

// Session is the ViewerSession.
type Session struct {
	mu sync.Mutex

	finalizer   *scene.Finalizer
	render      export.RenderOptions
	panoramaURL string

	panorama      image.Image
	panoramaState PanoramaState
	panoramaRev   int

	selection []selected
	paths     []scene.Geometry
	category  core.Category

	drawMode   bool
	autoRotate bool

	exporting atomic.Bool
	now       func() time.Time
}

// selected is one working-selection entry. The color is fixed when the point
// is clicked so every client draws it the same way.
type selected struct {
	point core.Vec3
	color string
}

// New creates a session with no panorama, an empty selection and draw mode off.
func New(cfg Config) *Session {
	if cfg.Category == "" {
		cfg.Category = core.CategoryElectrical
	}
	if cfg.Render == (export.RenderOptions{}) {
		cfg.Render = export.DefaultRenderOptions()
	}
	if cfg.PanoramaURL == "" {
		cfg.PanoramaURL = "/panorama"
	}
	return &Session{
		finalizer:   scene.NewFinalizer(cfg.Strategy, cfg.Scene),
		render:      cfg.Render,
		panoramaURL: cfg.PanoramaURL,
		category:    cfg.Category,
		autoRotate:  cfg.AutoRotate,
		now:         time.Now,
	}
}

// SetPanorama replaces the sphere texture. placeholder marks the synthetic
// fallback surface used after a failed load.
func (s *Session) SetPanorama(img image.Image, placeholder bool) []scene.Intent {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.panorama = img
	s.panoramaState = PanoramaLoaded
	if placeholder {
		s.panoramaState = PanoramaPlaceholder
	}
	s.panoramaRev++
	return []scene.Intent{s.panoramaIntent()}
}

// Panorama returns the current texture, or nil.
func (s *Session) Panorama() (image.Image, PanoramaState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panorama, s.panoramaState
}

func (s *Session) panoramaIntent() scene.Intent {
	url := fmt.Sprintf("%s?rev=%d", s.panoramaURL, s.panoramaRev)
	return scene.PanoramaIntent(url, s.finalizer.Options().SphereRadius)
}

// AddPoint appends a clicked surface point to the working selection. Points
// are ignored (nil intents, nil error) while draw mode is off.
func (s *Session) AddPoint(p core.Vec3) ([]scene.Intent, error) {
	if _, err := geo.ProjectToUV(p); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.drawMode {
		return nil, nil
	}
	s.selection = append(s.selection, selected{point: p, color: s.category.Color()})
	return s.selectionIntents(len(s.selection)), nil
}

// selectionIntents draws selection entry index (1-based): its hotspot and
// the preview line from the previous entry. Must be called with s.mu held.
func (s *Session) selectionIntents(index int) []scene.Intent {
	e := s.selection[index-1]
	intents := []scene.Intent{scene.HotspotIntent(e.point, index, s.finalizer.Options().HotspotRadius, e.color)}
	if index > 1 {
		prev := s.selection[index-2].point
		intents = append(intents, scene.PreviewLineIntent(prev, e.point, index, e.color))
	}
	return intents
}

// selectionPoints must be called with s.mu held.
func (s *Session) selectionPoints() []core.Vec3 {
	out := make([]core.Vec3, len(s.selection))
	for i, e := range s.selection {
		out[i] = e.point
	}
	return out
}

// UndoLastPoint drops the most recent selected point. ok is false when the
// selection is already empty.
func (s *Session) UndoLastPoint() (intents []scene.Intent, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.selection) == 0 {
		return nil, false
	}
	idx := len(s.selection)
	s.selection = s.selection[:idx-1]
	return scene.RemoveSelectionIntents(idx), true
}

// Finalize turns the working selection into a path of the active category
// and clears the selection. With fewer than 2 points nothing changes.
func (s *Session) Finalize() (scene.Geometry, []scene.Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	geom, err := s.finalizer.Finalize(s.selectionPoints(), s.category)
	if err != nil {
		return scene.Geometry{}, nil, err
	}

	intents := s.clearHotspots()
	intents = append(intents, geom.Meshes...)
	s.paths = append(s.paths, geom)
	return geom, intents, nil
}

// clearHotspots must be called with s.mu held.
func (s *Session) clearHotspots() []scene.Intent {
	intents := make([]scene.Intent, 0, 2*len(s.selection))
	for i := range s.selection {
		intents = append(intents, scene.RemoveSelectionIntents(i+1)...)
	}
	s.selection = nil
	return intents
}

// ClearAll removes every finalized path and the working selection.
// It returns the remove intents and the number of paths removed.
func (s *Session) ClearAll() ([]scene.Intent, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	intents := s.clearHotspots()
	for _, g := range s.paths {
		intents = append(intents, g.RemoveIntents()...)
	}
	n := len(s.paths)
	s.paths = nil
	return intents, n
}

// SetCategory changes the category used by the next finalized path.
func (s *Session) SetCategory(c core.Category) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %q", core.ErrUnknownCategory, c)
	}
	s.mu.Lock()
	s.category = c
	s.mu.Unlock()
	return nil
}

// SelectDigit maps keyboard digits 1-5 to the fixed categories.
func (s *Session) SelectDigit(d int) (core.Category, error) {
	c, err := core.CategoryForDigit(d)
	if err != nil {
		return "", err
	}
	return c, s.SetCategory(c)
}

// ToggleDrawMode flips draw mode and returns the new value.
func (s *Session) ToggleDrawMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drawMode = !s.drawMode
	return s.drawMode
}

// ToggleAutoRotate flips camera auto-rotation and returns the new value.
func (s *Session) ToggleAutoRotate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoRotate = !s.autoRotate
	return s.autoRotate
}

// RestorePaths adds previously persisted paths, e.g. loaded from storage at startup.
func (s *Session) RestorePaths(paths []core.Path) []scene.Intent {
	s.mu.Lock()
	defer s.mu.Unlock()

	var intents []scene.Intent
	for _, p := range paths {
		if len(p.Points) < 2 || !p.Category.Valid() {
			continue
		}
		g := s.finalizer.Build(p)
		s.paths = append(s.paths, g)
		intents = append(intents, g.Meshes...)
	}
	return intents
}

// ImportDocument rebuilds paths from an exported document. Points are placed
// back on the panorama sphere, so a re-export yields the same coordinates.
func (s *Session) ImportDocument(doc export.Document) ([]scene.Geometry, []scene.Intent, error) {
	radius := s.finalizer.Options().SphereRadius
	built := make([]core.Path, 0, len(doc.Paths))
	for i, dp := range doc.Paths {
		if !dp.Type.Valid() {
			return nil, nil, fmt.Errorf("path %d: %w: %q", i, core.ErrUnknownCategory, dp.Type)
		}
		if len(dp.Points) < 2 {
			return nil, nil, fmt.Errorf("path %d: %w", i, ErrTooFewPoints)
		}
		pts := make([]core.Vec3, len(dp.Points))
		for j, uv := range dp.Points {
			pts[j] = geo.UnprojectUV(uv, radius)
		}
		built = append(built, core.Path{Category: dp.Type, Points: pts})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	geoms := make([]scene.Geometry, 0, len(built))
	var intents []scene.Intent
	for _, p := range built {
		g, err := s.finalizer.Finalize(p.Points, p.Category)
		if err != nil {
			return geoms, intents, err
		}
		s.paths = append(s.paths, g)
		geoms = append(geoms, g)
		intents = append(intents, g.Meshes...)
	}
	return geoms, intents, nil
}

// Paths returns the finalized paths in creation order.
func (s *Session) Paths() []core.Path {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pathsLocked()
}

func (s *Session) pathsLocked() []core.Path {
	out := make([]core.Path, len(s.paths))
	for i, g := range s.paths {
		out[i] = g.Path
	}
	return out
}

// Exporting reports whether an export is currently rasterizing.
func (s *Session) Exporting() bool {
	return s.exporting.Load()
}
