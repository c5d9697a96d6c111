// internal/session/state.go
package session

import (
	"github.com/OCAP2/panopath/internal/scene"
	"github.com/OCAP2/panopath/pkg/core"
)

// State is a point-in-time copy of the session, sent to newly connected clients.
type State struct {
	Panorama   string        `json:"panorama"`
	Category   core.Category `json:"category"`
	Strategy   core.Strategy `json:"strategy"`
	DrawMode   bool          `json:"drawMode"`
	AutoRotate bool          `json:"autoRotate"`
	Selection  []core.Vec3   `json:"selection"`
	PathCount  int           `json:"pathCount"`
	Exporting  bool          `json:"exporting"`
}

// Snapshot copies the current state plus the intents that rebuild the whole
// scene from scratch: panorama, finalized paths, then the selection hotspots
// and preview lines in the colors they were drawn with.
func (s *Session) Snapshot() (State, []scene.Intent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Panorama:   s.panoramaState.String(),
		Category:   s.category,
		Strategy:   s.finalizer.Strategy(),
		DrawMode:   s.drawMode,
		AutoRotate: s.autoRotate,
		Selection:  s.selectionPoints(),
		PathCount:  len(s.paths),
		Exporting:  s.exporting.Load(),
	}

	var intents []scene.Intent
	if s.panoramaState != PanoramaNone {
		intents = append(intents, s.panoramaIntent())
	}
	for _, g := range s.paths {
		intents = append(intents, g.Meshes...)
	}
	for i := range s.selection {
		intents = append(intents, s.selectionIntents(i+1)...)
	}
	return st, intents
}

// Stats are the counters sampled by the monitor.
type Stats struct {
	Paths     int
	Points    int // across finalized paths
	Selection int
	Panorama  PanoramaState
}

// Stats returns current counters.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{Paths: len(s.paths), Selection: len(s.selection), Panorama: s.panoramaState}
	for _, g := range s.paths {
		st.Points += len(g.Path.Points)
	}
	return st
}
