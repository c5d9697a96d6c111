// pkg/core/vector.go
package core

import (
	"encoding/json"
	"fmt"
	"math"
)

// Vec3 is a point or direction in scene space. The panorama sphere is centered
// at the origin with +Y pointing up.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

func (v Vec3) Scale(k float64) Vec3 {
	return Vec3{X: v.X * k, Y: v.Y * k, Z: v.Z * k}
}

func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Length returns the Euclidean norm of v.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// DistanceTo returns the distance between v and o.
func (v Vec3) DistanceTo(o Vec3) float64 {
	return v.Sub(o).Length()
}

// Normalize returns the unit vector pointing the same way as v.
// ok is false for the zero vector and for vectors with non-finite components.
func (v Vec3) Normalize() (n Vec3, ok bool) {
	l := v.Length()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return Vec3{}, false
	}
	return v.Scale(1 / l), true
}

// Lerp interpolates linearly between v (t=0) and o (t=1).
func (v Vec3) Lerp(o Vec3, t float64) Vec3 {
	return v.Add(o.Sub(v).Scale(t))
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X, v.Y, v.Z)
}

// UV is a normalized texture coordinate on the equirectangular panorama.
// U runs left to right in [0,1), V runs top (north pole) to bottom in [0,1].
type UV struct {
	U float64
	V float64
}

// MarshalJSON encodes the coordinate as a two-element array.
func (uv UV) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{uv.U, uv.V})
}

// UnmarshalJSON decodes a [u, v] array.
func (uv *UV) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("failed to parse uv pair: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("uv pair must have 2 values, got %d", len(pair))
	}
	uv.U, uv.V = pair[0], pair[1]
	return nil
}
