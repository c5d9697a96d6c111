// internal/influx/points.go
package influx

import (
	"context"
	"time"

	"github.com/OCAP2/panopath/pkg/core"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementPath    = "path_finalized"
	MeasurementClear   = "paths_cleared"
	MeasurementExport  = "export"
	MeasurementSession = "session"
)

// Writer is satisfied by Manager and by test doubles.
type Writer interface {
	WritePoint(ctx context.Context, point *influxdb2_write.Point) error
}

// PathPoint records one finalized path.
func PathPoint(p core.Path, elapsed time.Duration) *influxdb2_write.Point {
	return influxdb2_write.NewPoint(
		MeasurementPath,
		map[string]string{
			"category": string(p.Category),
			"strategy": string(p.Strategy),
		},
		map[string]any{
			"points":     len(p.Points),
			"elapsed_ms": float64(elapsed.Microseconds()) / 1000,
		},
		p.CreatedAt,
	)
}

// ClearPoint records a clear-all. Every point carries at least one tag; the
// backup encoder emits a broken line for a tagless point.
func ClearPoint(removed int, panorama string, t time.Time) *influxdb2_write.Point {
	return influxdb2_write.NewPoint(
		MeasurementClear,
		map[string]string{"panorama": panorama},
		map[string]any{"paths": removed},
		t,
	)
}

// ExportPoint records one export.
func ExportPoint(mode string, paths, imageBytes int, elapsed time.Duration, t time.Time) *influxdb2_write.Point {
	return influxdb2_write.NewPoint(
		MeasurementExport,
		map[string]string{"mode": mode},
		map[string]any{
			"paths":       paths,
			"image_bytes": imageBytes,
			"elapsed_ms":  float64(elapsed.Microseconds()) / 1000,
		},
		t,
	)
}

// SessionPoint is the periodic session sample.
func SessionPoint(paths, points, selection, pending int, panorama string, t time.Time) *influxdb2_write.Point {
	return influxdb2_write.NewPoint(
		MeasurementSession,
		map[string]string{"panorama": panorama},
		map[string]any{
			"paths":     paths,
			"points":    points,
			"selection": selection,
			"pending":   pending,
		},
		t,
	)
}
