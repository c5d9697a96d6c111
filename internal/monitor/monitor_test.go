// internal/monitor/monitor_test.go
package monitor

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/OCAP2/panopath/internal/session"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeSource struct{ stats session.Stats }

func (f fakeSource) Stats() session.Stats { return f.stats }

type fakePending int

func (p fakePending) Pending() int { return int(p) }

type recordingWriter struct {
	mu     sync.Mutex
	points []*influxdb2_write.Point
}

func (w *recordingWriter) WritePoint(_ context.Context, p *influxdb2_write.Point) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.points = append(w.points, p)
	return nil
}

func (w *recordingWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.points)
}

func TestTick(t *testing.T) {
	statusFile := filepath.Join(t.TempDir(), "status.json")
	w := &recordingWriter{}
	s := NewService(Dependencies{
		Source: fakeSource{session.Stats{
			Paths: 2, Points: 7, Selection: 3, Panorama: session.PanoramaPlaceholder,
		}},
		Writes:     fakePending(5),
		Metrics:    w,
		StatusFile: statusFile,
	})

	status := s.Tick(context.Background())
	assert.Equal(t, 2, status.Paths)
	assert.Equal(t, 5, status.Pending)
	assert.Equal(t, 7, status.Points)
	assert.Equal(t, "placeholder", status.Panorama)

	require.Equal(t, 1, w.count())
	assert.Equal(t, "session", w.points[0].Name())

	data, err := os.ReadFile(statusFile)
	require.NoError(t, err)
	var onDisk Status
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, 3, onDisk.Selection)
	assert.Equal(t, 5, onDisk.Pending)
}

func TestStartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	w := &recordingWriter{}
	s := NewService(Dependencies{
		Source:   fakeSource{},
		Metrics:  w,
		Interval: 5 * time.Millisecond,
	})

	s.Start(context.Background())
	s.Start(context.Background())
	assert.True(t, s.IsRunning())
	assert.Eventually(t, func() bool { return w.count() >= 2 }, time.Second, 5*time.Millisecond)

	s.Stop()
	s.Stop()
	assert.False(t, s.IsRunning())
}

func TestStart_ContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	s := NewService(Dependencies{Source: fakeSource{}, Interval: time.Hour})
	s.Start(ctx)
	cancel()
	assert.Eventually(t, func() bool { return !s.IsRunning() }, time.Second, 5*time.Millisecond)
	s.Stop()
}
