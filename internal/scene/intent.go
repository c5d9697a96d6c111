// Package scene turns selected points into render-agnostic mesh intents.
// A thin adapter (the browser viewer) executes the intents against its
// graphics library; nothing here knows about any particular renderer.
package scene

import (
	"fmt"

	"github.com/OCAP2/panopath/pkg/core"
)

// Op is the action an intent asks the adapter to perform.
type Op string

const (
	OpAdd    Op = "add"
	OpRemove Op = "remove"
)

// Kind is the primitive an add intent describes.
type Kind string

const (
	KindCylinder Kind = "cylinder"
	KindSphere   Kind = "sphere"
	KindTube     Kind = "tube"
	KindHotspot  Kind = "hotspot"
	KindLine     Kind = "line"
	KindPanorama Kind = "panorama"
)

// Intent is a single add-mesh or remove-mesh instruction.
type Intent struct {
	Op        Op          `json:"op"`
	MeshID    string      `json:"meshId"`
	PathID    string      `json:"pathId,omitempty"`
	Kind      Kind        `json:"kind,omitempty"`
	Color     string      `json:"color,omitempty"`
	Position  *core.Vec3  `json:"position,omitempty"`
	Direction *core.Vec3  `json:"direction,omitempty"`
	Length    float64     `json:"length,omitempty"`
	Radius    float64     `json:"radius,omitempty"`
	Points    []core.Vec3 `json:"points,omitempty"`
	URL       string      `json:"url,omitempty"`
}

// Geometry is the set of meshes that represent one finalized path.
type Geometry struct {
	Path   core.Path
	Meshes []Intent
}

// Segments counts the cylinder meshes of the geometry.
func (g Geometry) Segments() int { return g.count(KindCylinder) }

// Joints counts the joint markers of the geometry.
func (g Geometry) Joints() int { return g.count(KindSphere) }

// Tubes counts the tube meshes of the geometry.
func (g Geometry) Tubes() int { return g.count(KindTube) }

func (g Geometry) count(k Kind) int {
	n := 0
	for _, m := range g.Meshes {
		if m.Kind == k {
			n++
		}
	}
	return n
}

// RemoveIntents returns the intents that delete every mesh of the geometry.
func (g Geometry) RemoveIntents() []Intent {
	out := make([]Intent, 0, len(g.Meshes))
	for _, m := range g.Meshes {
		out = append(out, Intent{Op: OpRemove, MeshID: m.MeshID, PathID: m.PathID})
	}
	return out
}

// HotspotIntent marks a selected, not yet finalized point.
func HotspotIntent(p core.Vec3, index int, radius float64, color string) Intent {
	pos := p
	return Intent{
		Op:       OpAdd,
		MeshID:   HotspotID(index),
		Kind:     KindHotspot,
		Color:    color,
		Position: &pos,
		Radius:   radius,
	}
}

// RemoveHotspotIntent deletes the hotspot of the selection entry at index.
func RemoveHotspotIntent(index int) Intent {
	return Intent{Op: OpRemove, MeshID: HotspotID(index)}
}

// HotspotID is the mesh ID of the selection entry at index.
func HotspotID(index int) string {
	return fmt.Sprintf("hotspot/%d", index)
}

// PreviewLineIntent connects the selection entry at index to the one before
// it while the path is still being drawn.
func PreviewLineIntent(from, to core.Vec3, index int, color string) Intent {
	return Intent{
		Op:     OpAdd,
		MeshID: PreviewLineID(index),
		Kind:   KindLine,
		Color:  color,
		Points: []core.Vec3{from, to},
	}
}

// PreviewLineID is the mesh ID of the line ending at selection entry index.
func PreviewLineID(index int) string {
	return fmt.Sprintf("preview/%d", index)
}

// RemoveSelectionIntents deletes the hotspot of selection entry index and the
// preview line leading to it. The first entry has no line.
func RemoveSelectionIntents(index int) []Intent {
	out := []Intent{RemoveHotspotIntent(index)}
	if index > 1 {
		out = append(out, Intent{Op: OpRemove, MeshID: PreviewLineID(index)})
	}
	return out
}

// PanoramaIntent tells the adapter to (re)load the panorama sphere texture.
func PanoramaIntent(url string, radius float64) Intent {
	return Intent{Op: OpAdd, MeshID: "panorama", Kind: KindPanorama, URL: url, Radius: radius}
}
