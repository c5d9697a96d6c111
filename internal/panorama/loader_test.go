// internal/panorama/loader_test.go
package panorama

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	mu          sync.Mutex
	img         image.Image
	placeholder bool
	errs        []error
	lastRead    int64
	total       int64
}

func (r *result) callbacks() Callbacks {
	return Callbacks{
		OnLoad: func(img image.Image, placeholder bool) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.img, r.placeholder = img, placeholder
		},
		OnProgress: func(read, total int64) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.lastRead, r.total = read, total
		},
		OnError: func(err error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errs = append(r.errs, err)
		},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writePNG(t *testing.T, path string, w, h int) int64 {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	st, err := f.Stat()
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return st.Size()
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pano.png")
	size := writePNG(t, path, 20, 10)

	var r result
	<-NewLoader(discardLogger()).Load(context.Background(), path, r.callbacks())

	require.NotNil(t, r.img)
	assert.False(t, r.placeholder)
	assert.Empty(t, r.errs)
	assert.Equal(t, image.Rect(0, 0, 20, 10), r.img.Bounds())
	assert.Equal(t, size, r.total)
	assert.Equal(t, size, r.lastRead)
}

func TestLoad_MissingFileFallsBack(t *testing.T) {
	var r result
	l := NewLoader(discardLogger(), WithPlaceholderSize(40, 20))
	<-l.Load(context.Background(), filepath.Join(t.TempDir(), "nope.jpg"), r.callbacks())

	require.Len(t, r.errs, 1)
	require.NotNil(t, r.img)
	assert.True(t, r.placeholder)
	assert.Equal(t, image.Rect(0, 0, 40, 20), r.img.Bounds())
}

func TestLoad_HTTP(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pano.png")
	writePNG(t, path, 8, 4)

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.ServeFile(w, r, path)
	}))
	defer srv.Close()

	var r result
	<-NewLoader(discardLogger()).Load(context.Background(), srv.URL+"/pano.png", r.callbacks())

	require.NotNil(t, r.img)
	assert.False(t, r.placeholder)
	assert.Equal(t, int32(1), hits.Load())
}

func TestLoad_HTTPErrorNoRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	var r result
	<-NewLoader(discardLogger(), WithHTTPClient(srv.Client())).Load(context.Background(), srv.URL, r.callbacks())

	assert.Equal(t, int32(1), hits.Load())
	require.Len(t, r.errs, 1)
	assert.Contains(t, r.errs[0].Error(), "404")
	assert.True(t, r.placeholder)
}

func TestLoad_NotAnImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pano.jpg")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0644))

	_, err := NewLoader(discardLogger()).LoadSync(context.Background(), path)
	assert.Error(t, err)
}

func TestLoad_NilCallbacks(t *testing.T) {
	<-NewLoader(discardLogger()).Load(context.Background(), "/does/not/exist.png", Callbacks{})
}
