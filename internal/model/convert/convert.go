// internal/model/convert/convert.go
package convert

import (
	"encoding/json"
	"fmt"

	"github.com/OCAP2/panopath/internal/model"
	"github.com/OCAP2/panopath/pkg/core"
	"github.com/google/uuid"
)

// ModelToPath converts a GORM AnnotatedPath back to a core.Path.
func ModelToPath(m model.AnnotatedPath) (core.Path, error) {
	id, err := uuid.Parse(m.PathID)
	if err != nil {
		return core.Path{}, fmt.Errorf("row %d: invalid path id: %w", m.ID, err)
	}
	cat, err := core.ParseCategory(m.Category)
	if err != nil {
		return core.Path{}, fmt.Errorf("row %d: %w", m.ID, err)
	}
	strategy, err := core.ParseStrategy(m.Strategy)
	if err != nil {
		return core.Path{}, fmt.Errorf("row %d: %w", m.ID, err)
	}

	var points []core.Vec3
	if err := json.Unmarshal(m.Points, &points); err != nil {
		return core.Path{}, fmt.Errorf("row %d: decode points: %w", m.ID, err)
	}

	return core.Path{
		ID:        id,
		Category:  cat,
		Strategy:  strategy,
		Points:    points,
		CreatedAt: m.CreatedAt,
	}, nil
}

// ModelsToPaths converts rows in order, stopping at the first bad row.
func ModelsToPaths(rows []model.AnnotatedPath) ([]core.Path, error) {
	out := make([]core.Path, 0, len(rows))
	for _, r := range rows {
		p, err := ModelToPath(r)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
