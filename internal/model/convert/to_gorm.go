// internal/model/convert/to_gorm.go

// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"encoding/json"
	"fmt"

	"github.com/OCAP2/panopath/internal/geo"
	"github.com/OCAP2/panopath/internal/model"
	"github.com/OCAP2/panopath/pkg/core"
	"gorm.io/datatypes"
)

// toJSON marshals v for a datatypes.JSON column.
func toJSON(v any) (datatypes.JSON, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}

// PathToModel converts a core.Path to a GORM AnnotatedPath. The projected
// coordinates and the lon/lat track are derived here so queries never need
// to redo the projection.
func PathToModel(p core.Path) (model.AnnotatedPath, error) {
	uvs, err := geo.ProjectPath(p.Points)
	if err != nil {
		return model.AnnotatedPath{}, fmt.Errorf("project path %s: %w", p.ID, err)
	}

	points, err := toJSON(p.Points)
	if err != nil {
		return model.AnnotatedPath{}, err
	}
	uvJSON, err := toJSON(uvs)
	if err != nil {
		return model.AnnotatedPath{}, err
	}
	mls, err := geo.SeamLineString(uvs)
	if err != nil {
		return model.AnnotatedPath{}, fmt.Errorf("build track %s: %w", p.ID, err)
	}
	track, err := mls.MarshalJSON()
	if err != nil {
		return model.AnnotatedPath{}, fmt.Errorf("encode track: %w", err)
	}

	return model.AnnotatedPath{
		PathID:     p.ID.String(),
		CreatedAt:  p.CreatedAt,
		Category:   string(p.Category),
		Color:      p.Color(),
		Strategy:   string(p.Strategy),
		PointCount: len(p.Points),
		Points:     points,
		UVs:        uvJSON,
		GeoJSON:    datatypes.JSON(track),
	}, nil
}
