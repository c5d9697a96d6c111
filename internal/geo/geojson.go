package geo

import (
	"encoding/json"
	"fmt"

	"github.com/OCAP2/panopath/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// PathGeoJSON renders finalized paths as a GeoJSON FeatureCollection.
// Each feature carries the category code and color as properties.
func PathGeoJSON(paths []core.Path) ([]byte, error) {
	fc := make(geom.GeoJSONFeatureCollection, 0, len(paths))
	for _, p := range paths {
		uvs, err := ProjectPath(p.Points)
		if err != nil {
			return nil, fmt.Errorf("path %s: %w", p.ID, err)
		}
		mls, err := SeamLineString(uvs)
		if err != nil {
			return nil, fmt.Errorf("path %s: %w", p.ID, err)
		}
		fc = append(fc, geom.GeoJSONFeature{
			ID:       p.ID.String(),
			Geometry: mls.AsGeometry(),
			Properties: map[string]interface{}{
				"type":  string(p.Category),
				"color": p.Color(),
				"seam":  CrossesSeam(uvs),
			},
		})
	}
	return json.Marshal(fc)
}
