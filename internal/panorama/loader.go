// internal/panorama/loader.go

// Package panorama loads the equirectangular texture shown on the sphere.
package panorama

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/OCAP2/panopath/internal/raster"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Callbacks receive the outcome of an asynchronous load. Any of them may be nil.
type Callbacks struct {
	// OnLoad receives the decoded texture, or the placeholder surface when
	// placeholder is true.
	OnLoad     func(img image.Image, placeholder bool)
	OnProgress func(read, total int64) // total is -1 when unknown
	OnError    func(err error)
}

// Loader fetches panoramas from local files or http(s) URLs
type Loader struct {
	client            *http.Client
	logger            *slog.Logger
	placeholderWidth  int
	placeholderHeight int
}

// Option configures a Loader
type Option func(*Loader)

// WithHTTPClient overrides the client used for URL sources
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) { l.client = c }
}

// WithPlaceholderSize sets the size of the fallback surface
func WithPlaceholderSize(w, h int) Option {
	return func(l *Loader) {
		l.placeholderWidth = w
		l.placeholderHeight = h
	}
}

// NewLoader creates a loader
func NewLoader(logger *slog.Logger, opts ...Option) *Loader {
	l := &Loader{
		client:            &http.Client{Timeout: 2 * time.Minute},
		logger:            logger,
		placeholderWidth:  2048,
		placeholderHeight: 1024,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads source in the background. On failure OnError fires, then OnLoad
// receives the placeholder; the fetch is never retried. The returned channel
// closes after the last callback has returned.
func (l *Loader) Load(ctx context.Context, source string, cb Callbacks) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		img, err := l.fetch(ctx, source, cb.OnProgress)
		if err != nil {
			l.logger.Error("Failed to load panorama, using placeholder", "source", source, "error", err)
			if cb.OnError != nil {
				cb.OnError(err)
			}
			if cb.OnLoad != nil {
				cb.OnLoad(raster.Placeholder(l.placeholderWidth, l.placeholderHeight), true)
			}
			return
		}

		b := img.Bounds()
		if b.Dx() != 2*b.Dy() {
			l.logger.Warn("Panorama is not 2:1, mapping will be distorted", "width", b.Dx(), "height", b.Dy())
		}
		l.logger.Info("Panorama loaded", "source", source, "width", b.Dx(), "height", b.Dy())
		if cb.OnLoad != nil {
			cb.OnLoad(img, false)
		}
	}()
	return done
}

// LoadSync reads and decodes source on the calling goroutine.
func (l *Loader) LoadSync(ctx context.Context, source string) (image.Image, error) {
	return l.fetch(ctx, source, nil)
}

func (l *Loader) fetch(ctx context.Context, source string, progress func(read, total int64)) (image.Image, error) {
	rc, total, err := l.open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var r io.Reader = rc
	if progress != nil {
		r = &progressReader{r: rc, total: total, fn: progress}
	}
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", source, err)
	}
	l.logger.Debug("Decoded panorama", "format", format)
	return img, nil
}

func (l *Loader) open(ctx context.Context, source string) (io.ReadCloser, int64, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, 0, err
		}
		resp, err := l.client.Do(req)
		if err != nil {
			return nil, 0, fmt.Errorf("fetch %s: %w", source, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, 0, fmt.Errorf("fetch %s: unexpected status %s", source, resp.Status)
		}
		return resp.Body, resp.ContentLength, nil
	}

	f, err := os.Open(source)
	if err != nil {
		return nil, 0, fmt.Errorf("open panorama: %w", err)
	}
	total := int64(-1)
	if st, err := f.Stat(); err == nil {
		total = st.Size()
	}
	return f, total, nil
}

type progressReader struct {
	r     io.Reader
	read  int64
	total int64
	fn    func(read, total int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		p.fn(p.read, p.total)
	}
	return n, err
}
