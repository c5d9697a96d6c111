package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/OCAP2/panopath/pkg/core"
)

// EQUIRECTANGULAR MAPPING
// The panorama sphere is viewed from its center with the texture mirrored
// horizontally, so longitude is negated and then shifted by half a turn.
// U grows to the right of the image, V grows from the +Y pole downwards.

// ErrDegeneratePoint is returned for points without a direction from the origin.
var ErrDegeneratePoint = errors.New("point has no direction from the sphere center")

// ProjectToUV maps a point on (or near) the panorama sphere to texture coordinates.
// Only the direction of p matters. At the poles the horizontal coordinate is
// whatever atan2(0, 0) gives; that is accepted, not an error.
func ProjectToUV(p core.Vec3) (core.UV, error) {
	n, ok := p.Normalize()
	if !ok {
		return core.UV{}, fmt.Errorf("%w: %s", ErrDegeneratePoint, p)
	}

	theta := math.Acos(clamp(n.Y, -1, 1))
	phi := -math.Atan2(n.Z, n.X)

	u := math.Mod((phi+math.Pi)/(2*math.Pi)+1, 1)
	v := theta / math.Pi
	return core.UV{U: u, V: v}, nil
}

// ProjectPath projects every point of a path, failing on the first degenerate one.
func ProjectPath(points []core.Vec3) ([]core.UV, error) {
	uvs := make([]core.UV, len(points))
	for i, p := range points {
		uv, err := ProjectToUV(p)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		uvs[i] = uv
	}
	return uvs, nil
}

// UnprojectUV returns the point on a sphere of the given radius that projects to uv.
func UnprojectUV(uv core.UV, radius float64) core.Vec3 {
	phi := 2*math.Pi*uv.U - math.Pi
	theta := uv.V * math.Pi

	// undo the handedness flip applied in ProjectToUV
	lon := -phi
	sinTheta := math.Sin(theta)
	return core.Vec3{
		X: radius * sinTheta * math.Cos(lon),
		Y: radius * math.Cos(theta),
		Z: radius * sinTheta * math.Sin(lon),
	}
}

// ToPixel scales a normalized coordinate to canvas pixels.
func ToPixel(uv core.UV, width, height int) (x, y float64) {
	return uv.U * float64(width), uv.V * float64(height)
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
