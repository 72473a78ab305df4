// Package thumbnail renders small previews of the photos products link to.
package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"

	"github.com/abgdnv/wallacore/pkg/config"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ErrFetch is returned when the photo cannot be downloaded or decoded.
var ErrFetch = errors.New("photo unavailable")

// Generator downloads photos and renders them as PNG thumbnails.
type Generator struct {
	client    *http.Client
	size      int
	maxBytes  int64
	maxPixels int64
}

func NewGenerator(cfg config.ThumbnailConfig, transport http.RoundTripper) *Generator {
	maxPixels := cfg.MaxPixels
	if maxPixels <= 0 {
		maxPixels = config.DefaultThumbnailMaxPixels
	}
	return &Generator{
		client:    &http.Client{Timeout: cfg.Timeout, Transport: transport},
		size:      cfg.Size,
		maxBytes:  cfg.MaxBytes,
		maxPixels: maxPixels,
	}
}

// Render fetches the photo at url and returns it as a PNG fitting in a size×size box.
// Photos larger than maxBytes, or declaring more than maxPixels, fail with ErrFetch
// without being decoded.
func (g *Generator) Render(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid photo reference %q: %w: %w", url, err, ErrFetch)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w: %w", url, err, ErrFetch)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s returned %s: %w", url, resp.Status, ErrFetch)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, g.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w: %w", url, err, ErrFetch)
	}
	if int64(len(data)) > g.maxBytes {
		return nil, fmt.Errorf("photo %s exceeds %d bytes: %w", url, g.maxBytes, ErrFetch)
	}
	src, err := g.decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w: %w", url, err, ErrFetch)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, Scale(src, g.size)); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// decode checks the declared dimensions before allocating the pixel buffer.
func (g *Generator) decode(data []byte) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("empty image %dx%d", cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > g.maxPixels {
		return nil, fmt.Errorf("image %dx%d exceeds %d pixels", cfg.Width, cfg.Height, g.maxPixels)
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	return src, err
}

// Scale shrinks src to fit in a size×size box keeping its aspect ratio.
// Images already inside the box are returned unchanged.
func Scale(src image.Image, size int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= size && h <= size {
		return src
	}
	tw, th := size, size
	if w >= h {
		th = max(1, h*size/w)
	} else {
		tw = max(1, w*size/h)
	}
	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
