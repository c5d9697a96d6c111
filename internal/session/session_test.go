// internal/session/session_test.go
package session

import (
	"image"
	"sync"
	"testing"
	"time"

	"github.com/OCAP2/panopath/internal/export"
	"github.com/OCAP2/panopath/internal/scene"
	"github.com/OCAP2/panopath/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession() *Session {
	s := New(Config{
		Strategy: core.StrategySegmented,
		Scene:    scene.DefaultOptions(),
		Render:   export.RenderOptions{Width: 64, Height: 32, StrokeWidth: 2},
	})
	s.now = func() time.Time { return time.UnixMilli(42) }
	return s
}

func drawPoints(t *testing.T, s *Session, pts ...core.Vec3) {
	t.Helper()
	for _, p := range pts {
		_, err := s.AddPoint(p)
		require.NoError(t, err)
	}
}

var (
	east  = core.Vec3{X: 500}
	north = core.Vec3{Y: 500}
	west  = core.Vec3{X: -500}
)

func TestAddPoint_IgnoredOutsideDrawMode(t *testing.T) {
	s := newTestSession()

	intents, err := s.AddPoint(east)
	require.NoError(t, err)
	assert.Nil(t, intents)
	assert.Zero(t, s.Stats().Selection)
}

func TestAddPoint_Hotspot(t *testing.T) {
	s := newTestSession()
	require.True(t, s.ToggleDrawMode())

	intents, err := s.AddPoint(east)
	require.NoError(t, err)
	require.Len(t, intents, 1)
	assert.Equal(t, scene.KindHotspot, intents[0].Kind)
	assert.Equal(t, "hotspot/1", intents[0].MeshID)
	assert.Equal(t, "#ffaa00", intents[0].Color)
}

func TestAddPoint_PreviewLine(t *testing.T) {
	s := newTestSession()
	s.ToggleDrawMode()
	drawPoints(t, s, east)
	require.NoError(t, s.SetCategory(core.CategoryAirCon))

	intents, err := s.AddPoint(north)
	require.NoError(t, err)
	require.Len(t, intents, 2)
	assert.Equal(t, "hotspot/2", intents[0].MeshID)

	line := intents[1]
	assert.Equal(t, scene.KindLine, line.Kind)
	assert.Equal(t, "preview/2", line.MeshID)
	assert.Equal(t, []core.Vec3{east, north}, line.Points)
	assert.Equal(t, "#00ccff", line.Color)
}

func TestAddPoint_Degenerate(t *testing.T) {
	s := newTestSession()
	s.ToggleDrawMode()
	_, err := s.AddPoint(core.Vec3{})
	assert.Error(t, err)
}

func TestUndoLastPoint(t *testing.T) {
	s := newTestSession()
	s.ToggleDrawMode()
	drawPoints(t, s, east, north)

	intents, ok := s.UndoLastPoint()
	require.True(t, ok)
	assert.Equal(t, scene.RemoveSelectionIntents(2), intents)
	require.Len(t, intents, 2)
	assert.Equal(t, "preview/2", intents[1].MeshID)
	assert.Equal(t, 1, s.Stats().Selection)

	_, ok = s.UndoLastPoint()
	require.True(t, ok)
	_, ok = s.UndoLastPoint()
	assert.False(t, ok)
}

func TestFinalize_TooFewPointsLeavesState(t *testing.T) {
	s := newTestSession()
	s.ToggleDrawMode()
	drawPoints(t, s, east)

	_, intents, err := s.Finalize()
	assert.ErrorIs(t, err, ErrTooFewPoints)
	assert.Nil(t, intents)
	assert.Equal(t, 1, s.Stats().Selection)
	assert.Empty(t, s.Paths())
}

func TestFinalize_AirCon(t *testing.T) {
	s := newTestSession()
	s.ToggleDrawMode()
	require.NoError(t, s.SetCategory(core.CategoryAirCon))
	drawPoints(t, s, east, north, west)

	g, intents, err := s.Finalize()
	require.NoError(t, err)
	assert.Equal(t, 2, g.Segments())
	assert.Equal(t, 3, g.Joints())
	assert.Equal(t, "#00ccff", g.Path.Color())

	// hotspots and preview lines removed first, then path meshes added
	require.Len(t, intents, 5+len(g.Meshes))
	for _, in := range intents[:5] {
		assert.Equal(t, scene.OpRemove, in.Op)
	}
	assert.Zero(t, s.Stats().Selection)
	assert.Len(t, s.Paths(), 1)
}

func TestClearAll(t *testing.T) {
	s := newTestSession()
	s.ToggleDrawMode()
	drawPoints(t, s, east, north)
	g, _, err := s.Finalize()
	require.NoError(t, err)
	drawPoints(t, s, west, east)

	intents, n := s.ClearAll()
	assert.Equal(t, 1, n)
	assert.Len(t, intents, 3+len(g.Meshes))
	assert.Contains(t, intents, scene.Intent{Op: scene.OpRemove, MeshID: "preview/2"})
	for _, in := range intents {
		assert.Equal(t, scene.OpRemove, in.Op)
	}
	assert.Equal(t, Stats{}, s.Stats())
}

func TestSelectDigit(t *testing.T) {
	s := newTestSession()
	c, err := s.SelectDigit(5)
	require.NoError(t, err)
	assert.Equal(t, core.CategoryGas, c)

	st, _ := s.Snapshot()
	assert.Equal(t, core.CategoryGas, st.Category)

	_, err = s.SelectDigit(9)
	assert.Error(t, err)
	st, _ = s.Snapshot()
	assert.Equal(t, core.CategoryGas, st.Category)
}

func TestSetCategory_Unknown(t *testing.T) {
	s := newTestSession()
	assert.ErrorIs(t, s.SetCategory("XX"), core.ErrUnknownCategory)
}

func TestToggles(t *testing.T) {
	s := newTestSession()
	assert.True(t, s.ToggleAutoRotate())
	assert.False(t, s.ToggleAutoRotate())
	assert.True(t, s.ToggleDrawMode())
	assert.False(t, s.ToggleDrawMode())
}

func TestExport_NoPanorama(t *testing.T) {
	s := newTestSession()
	_, err := s.Export(export.ModeWithPaths)
	assert.ErrorIs(t, err, ErrNoPanorama)
	assert.False(t, s.Exporting())
}

func TestExport_InProgress(t *testing.T) {
	s := newTestSession()
	s.SetPanorama(image.NewRGBA(image.Rect(0, 0, 8, 4)), false)
	s.exporting.Store(true)

	_, err := s.Export(export.ModeImageOnly)
	assert.ErrorIs(t, err, ErrExportInProgress)
}

func TestExport_WithPaths(t *testing.T) {
	s := newTestSession()
	s.SetPanorama(image.NewRGBA(image.Rect(0, 0, 8, 4)), true)
	s.ToggleDrawMode()
	drawPoints(t, s, east, north, west)
	_, _, err := s.Finalize()
	require.NoError(t, err)

	art, err := s.Export(export.ModeWithPaths)
	require.NoError(t, err)
	assert.NotEmpty(t, art.Image)
	assert.Equal(t, "panorama_with-paths_42.png", art.ImageName())
	assert.Equal(t, "paths_42.json", art.DocumentName())
	assert.Equal(t, [2]int{64, 32}, art.Document.ImageSize)
	require.Len(t, art.Document.Paths, 1)
	assert.Len(t, art.Document.Paths[0].Points, 3)
	assert.False(t, s.Exporting())
}

func TestExport_Concurrent(t *testing.T) {
	s := newTestSession()
	s.SetPanorama(image.NewRGBA(image.Rect(0, 0, 8, 4)), false)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Export(export.ModeImageOnly)
			if err != nil {
				assert.ErrorIs(t, err, ErrExportInProgress)
			}
		}()
	}
	wg.Wait()
	assert.False(t, s.Exporting())
}

func TestImportDocument_RoundTrip(t *testing.T) {
	doc := export.Document{Version: export.Version, Paths: []export.DocumentPath{{
		Type:   core.CategoryWaterPipe,
		Color:  "#0066ff",
		Points: []core.UV{{U: 0.1, V: 0.4}, {U: 0.3, V: 0.6}, {U: 0.7, V: 0.5}},
	}}}

	s := newTestSession()
	geoms, intents, err := s.ImportDocument(doc)
	require.NoError(t, err)
	require.Len(t, geoms, 1)
	assert.NotEmpty(t, intents)

	out, err := s.ExportDocument()
	require.NoError(t, err)
	require.Len(t, out.Paths, 1)
	for i, uv := range doc.Paths[0].Points {
		assert.InDelta(t, uv.U, out.Paths[0].Points[i].U, 1e-9)
		assert.InDelta(t, uv.V, out.Paths[0].Points[i].V, 1e-9)
	}
}

func TestImportDocument_Invalid(t *testing.T) {
	s := newTestSession()
	_, _, err := s.ImportDocument(export.Document{Paths: []export.DocumentPath{{
		Type:   "ZZ",
		Points: []core.UV{{}, {U: 0.5}},
	}}})
	assert.ErrorIs(t, err, core.ErrUnknownCategory)
	assert.Empty(t, s.Paths())
}

func TestRestorePaths(t *testing.T) {
	s := newTestSession()
	intents := s.RestorePaths([]core.Path{
		{Category: core.CategoryGas, Points: []core.Vec3{east, north}},
		{Category: core.CategoryGas, Points: []core.Vec3{east}},
	})
	assert.NotEmpty(t, intents)
	assert.Len(t, s.Paths(), 1)
}

func TestSnapshot(t *testing.T) {
	s := newTestSession()
	st, intents := s.Snapshot()
	assert.Equal(t, "none", st.Panorama)
	assert.Empty(t, intents)

	s.SetPanorama(image.NewRGBA(image.Rect(0, 0, 8, 4)), false)
	s.ToggleDrawMode()
	drawPoints(t, s, east, north)
	_, _, err := s.Finalize()
	require.NoError(t, err)
	drawPoints(t, s, west)

	st, intents = s.Snapshot()
	assert.Equal(t, "loaded", st.Panorama)
	assert.True(t, st.DrawMode)
	assert.Equal(t, 1, st.PathCount)
	assert.Len(t, st.Selection, 1)
	assert.Equal(t, scene.KindPanorama, intents[0].Kind)
	assert.Equal(t, "/panorama?rev=1", intents[0].URL)
	assert.Equal(t, scene.KindHotspot, intents[len(intents)-1].Kind)
}

func TestSnapshot_SelectionKeepsDrawnColor(t *testing.T) {
	s := newTestSession()
	s.ToggleDrawMode()

	live, err := s.AddPoint(east)
	require.NoError(t, err)
	require.NoError(t, s.SetCategory(core.CategoryAirCon))
	drawPoints(t, s, north)

	_, intents := s.Snapshot()
	require.Len(t, intents, 3)
	assert.Equal(t, live[0], intents[0])
	assert.Equal(t, "#00ccff", intents[1].Color)
	assert.Equal(t, "#00ccff", intents[2].Color)
	assert.Equal(t, scene.KindLine, intents[2].Kind)
}
