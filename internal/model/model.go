// internal/model/model.go
package model

import (
	"time"

	"gorm.io/datatypes"
)

// DatabaseModels lists every struct that maps to a table in the schema
var DatabaseModels = []any{
	&PanoInfo{},
	&AnnotatedPath{},
}

// PanoInfo is a single-row table describing the annotation database
type PanoInfo struct {
	ID            uint      `json:"id" gorm:"primarykey"`
	CreatedAt     time.Time `json:"createdAt"`
	SchemaVersion string    `json:"schemaVersion" gorm:"size:16"`
	Description   string    `json:"description" gorm:"size:255"`
}

func (*PanoInfo) TableName() string {
	return "pano_infos"
}

// AnnotatedPath is one finalized path
type AnnotatedPath struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	PathID    string    `json:"pathId" gorm:"size:36;uniqueIndex"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	Category  string    `json:"category" gorm:"size:2;index"`
	Color     string    `json:"color" gorm:"size:7"`
	Strategy  string    `json:"strategy" gorm:"size:16"`

	PointCount int            `json:"pointCount"`
	Points     datatypes.JSON `json:"points"`  // []core.Vec3 in scene units
	UVs        datatypes.JSON `json:"uvs"`     // [][2]float64, equirectangular
	GeoJSON    datatypes.JSON `json:"geojson"` // MultiLineString in plate-carree lon/lat
}

func (*AnnotatedPath) TableName() string {
	return "annotated_paths"
}
