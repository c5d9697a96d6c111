package scene

import (
	"errors"
	"fmt"
	"time"

	"github.com/OCAP2/panopath/pkg/core"
	"github.com/google/uuid"
)

// ErrTooFewPoints is returned when a path is finalized with fewer than 2 points.
var ErrTooFewPoints = errors.New("a path needs at least 2 points")

// Options size the generated meshes, in scene units.
type Options struct {
	SphereRadius     float64
	MinSegmentLength float64
	CylinderRadius   float64
	JointRadius      float64
	EndpointRadius   float64
	TubeRadius       float64
	TubeSamples      int // samples per input segment
	HotspotRadius    float64
}

// DefaultOptions matches a 500-unit panorama sphere.
func DefaultOptions() Options {
	return Options{
		SphereRadius:     500,
		MinSegmentLength: 5,
		CylinderRadius:   1.5,
		JointRadius:      2,
		EndpointRadius:   3,
		TubeRadius:       1.5,
		TubeSamples:      16,
		HotspotRadius:    3,
	}
}

// Finalizer builds persistent path geometry with one of the two strategies.
type Finalizer struct {
	strategy core.Strategy
	opts     Options
	now      func() time.Time
}

// NewFinalizer creates a Finalizer. Zero options fall back to DefaultOptions.
func NewFinalizer(strategy core.Strategy, opts Options) *Finalizer {
	if opts == (Options{}) {
		opts = DefaultOptions()
	}
	return &Finalizer{strategy: strategy, opts: opts, now: time.Now}
}

// Strategy returns the configured path strategy.
func (f *Finalizer) Strategy() core.Strategy { return f.strategy }

// Options returns the mesh sizing in use.
func (f *Finalizer) Options() Options { return f.opts }

// Finalize turns the selected points into a path and its meshes.
func (f *Finalizer) Finalize(points []core.Vec3, category core.Category) (Geometry, error) {
	if len(points) < 2 {
		return Geometry{}, fmt.Errorf("%w: got %d", ErrTooFewPoints, len(points))
	}
	if !category.Valid() {
		return Geometry{}, fmt.Errorf("%w: %q", core.ErrUnknownCategory, category)
	}

	path := core.Path{
		ID:        uuid.New(),
		Category:  category,
		Strategy:  f.strategy,
		Points:    append([]core.Vec3(nil), points...),
		CreatedAt: f.now().UTC(),
	}
	return f.Build(path), nil
}

// Build creates the meshes for an existing path, e.g. one restored from storage.
func (f *Finalizer) Build(path core.Path) Geometry {
	geo := Geometry{Path: path}
	switch path.Strategy {
	case core.StrategyTube:
		geo.Meshes = append(geo.Meshes, f.tube(path))
	default:
		geo.Meshes = append(geo.Meshes, f.segments(path)...)
	}
	geo.Meshes = append(geo.Meshes, f.joints(path)...)
	return geo
}

func (f *Finalizer) segments(path core.Path) []Intent {
	pid := path.ID.String()
	var out []Intent
	for i := 1; i < len(path.Points); i++ {
		a, b := path.Points[i-1], path.Points[i]
		length := a.DistanceTo(b)
		if length < f.opts.MinSegmentLength {
			continue
		}
		dir, ok := b.Sub(a).Normalize()
		if !ok {
			continue
		}
		mid := a.Lerp(b, 0.5)
		out = append(out, Intent{
			Op:        OpAdd,
			MeshID:    fmt.Sprintf("%s/segment/%d", pid, i-1),
			PathID:    pid,
			Kind:      KindCylinder,
			Color:     path.Color(),
			Position:  &mid,
			Direction: &dir,
			Length:    length,
			Radius:    f.opts.CylinderRadius,
		})
	}
	return out
}

func (f *Finalizer) tube(path core.Path) Intent {
	pid := path.ID.String()
	samples := max(f.opts.TubeSamples, 1) * (len(path.Points) - 1)
	return Intent{
		Op:     OpAdd,
		MeshID: pid + "/tube",
		PathID: pid,
		Kind:   KindTube,
		Color:  path.Color(),
		Radius: f.opts.TubeRadius,
		Points: NewCatmullRom(path.Points).Sample(samples),
	}
}

// joints masks the seams between adjacent meshes; endpoints get bigger markers.
func (f *Finalizer) joints(path core.Path) []Intent {
	pid := path.ID.String()
	out := make([]Intent, 0, len(path.Points))
	last := len(path.Points) - 1
	for i, p := range path.Points {
		pos := p
		r := f.opts.JointRadius
		if i == 0 || i == last {
			r = f.opts.EndpointRadius
		}
		out = append(out, Intent{
			Op:       OpAdd,
			MeshID:   fmt.Sprintf("%s/joint/%d", pid, i),
			PathID:   pid,
			Kind:     KindSphere,
			Color:    path.Color(),
			Position: &pos,
			Radius:   r,
		})
	}
	return out
}
