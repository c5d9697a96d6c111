package geo

import (
	"encoding/json"
	"fmt"

	"github.com/OCAP2/panopath/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// ParsePolyline parses a JSON array of texture coordinates into UV points.
// Input format: "[[u1,v1],[u2,v2],...]"
func ParsePolyline(input string) ([]core.UV, error) {
	var coords [][]float64
	if err := json.Unmarshal([]byte(input), &coords); err != nil {
		return nil, fmt.Errorf("failed to parse polyline JSON: %w", err)
	}

	if len(coords) < 2 {
		return nil, fmt.Errorf("polyline must have at least 2 points, got %d", len(coords))
	}

	polyline := make([]core.UV, len(coords))
	for i, coord := range coords {
		if len(coord) < 2 {
			return nil, fmt.Errorf("coordinate %d has insufficient values", i)
		}
		if coord[0] < 0 || coord[0] > 1 || coord[1] < 0 || coord[1] > 1 {
			return nil, fmt.Errorf("coordinate %d is outside the unit square", i)
		}
		polyline[i] = core.UV{U: coord[0], V: coord[1]}
	}

	return polyline, nil
}

// ToLonLat converts a texture coordinate to plate-carrée degrees.
// The equirectangular image is exactly that projection of the viewing sphere.
func ToLonLat(uv core.UV) (lon, lat float64) {
	return uv.U*360 - 180, 90 - uv.V*180
}

// SeamLineString builds a MultiLineString in lon/lat from a projected path,
// split at the seam the same way the rasterizer splits it.
func SeamLineString(uvs []core.UV) (geom.MultiLineString, error) {
	runs := SplitAtSeam(uvs)
	lss := make([]geom.LineString, 0, len(runs))
	for _, run := range runs {
		// a run that only touches the seam edge carries no line
		if !hasDistinct(run) {
			continue
		}
		flatCoords := make([]float64, 0, len(run)*2)
		for _, uv := range run {
			lon, lat := ToLonLat(uv)
			flatCoords = append(flatCoords, lon, lat)
		}
		seq := geom.NewSequence(flatCoords, geom.DimXY)
		ls, err := geom.NewLineString(seq)
		if err != nil {
			return geom.MultiLineString{}, fmt.Errorf("seam run %d: %w", len(lss), err)
		}
		lss = append(lss, ls)
	}
	return geom.NewMultiLineString(lss), nil
}

func hasDistinct(run []core.UV) bool {
	for _, uv := range run[1:] {
		if uv != run[0] {
			return true
		}
	}
	return false
}
