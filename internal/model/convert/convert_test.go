// internal/model/convert/convert_test.go
package convert

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/OCAP2/panopath/internal/geo"
	"github.com/OCAP2/panopath/internal/model"
	"github.com/OCAP2/panopath/pkg/core"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePath() core.Path {
	return core.Path{
		ID:        uuid.MustParse("8a4d5c1e-0c5e-4a3b-9d6e-6f0f1b2a3c4d"),
		Category:  core.CategoryWaste,
		Strategy:  core.StrategyTube,
		Points:    []core.Vec3{{X: 500}, {Z: 500}, {X: -500}},
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestPathToModel(t *testing.T) {
	m, err := PathToModel(samplePath())
	require.NoError(t, err)

	assert.Equal(t, "8a4d5c1e-0c5e-4a3b-9d6e-6f0f1b2a3c4d", m.PathID)
	assert.Equal(t, "WA", m.Category)
	assert.Equal(t, "#66cc33", m.Color)
	assert.Equal(t, "tube", m.Strategy)
	assert.Equal(t, 3, m.PointCount)

	var uvs []core.UV
	require.NoError(t, json.Unmarshal(m.UVs, &uvs))
	want, err := geo.ProjectPath(samplePath().Points)
	require.NoError(t, err)
	assert.Equal(t, want, uvs)

	var track map[string]any
	require.NoError(t, json.Unmarshal(m.GeoJSON, &track))
	assert.Equal(t, "MultiLineString", track["type"])
}

func TestPathToModel_DegeneratePoint(t *testing.T) {
	p := samplePath()
	p.Points[0] = core.Vec3{}
	_, err := PathToModel(p)
	assert.ErrorIs(t, err, geo.ErrDegeneratePoint)
}

func TestRoundTrip(t *testing.T) {
	m, err := PathToModel(samplePath())
	require.NoError(t, err)

	back, err := ModelToPath(m)
	require.NoError(t, err)
	assert.Equal(t, samplePath(), back)
}

func TestModelToPath_Invalid(t *testing.T) {
	good, err := PathToModel(samplePath())
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(m *model.AnnotatedPath)
	}{
		{"bad id", func(m *model.AnnotatedPath) { m.PathID = "nope" }},
		{"bad category", func(m *model.AnnotatedPath) { m.Category = "ZZ" }},
		{"bad strategy", func(m *model.AnnotatedPath) { m.Strategy = "bezier" }},
		{"bad points", func(m *model.AnnotatedPath) { m.Points = []byte("{") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := good
			tt.mutate(&m)
			_, err := ModelToPath(m)
			assert.Error(t, err)

			_, err = ModelsToPaths([]model.AnnotatedPath{good, m})
			assert.Error(t, err)
		})
	}
}
