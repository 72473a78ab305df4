package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	defaultThumbnailSize = 100
	// DefaultThumbnailMaxPixels caps the declared dimensions of a source photo (24 megapixels).
	DefaultThumbnailMaxPixels = 24_000_000
)

type ThumbnailConfig struct {
	Size     int           `koanf:"size"`
	Timeout  time.Duration `koanf:"timeout"`
	MaxBytes int64         `koanf:"maxbytes"`
	// MaxPixels rejects photos whose width×height exceeds it before they are decoded.
	MaxPixels int64 `koanf:"maxpixels"`
}

// String returns a string representation of the thumbnail configuration.
func (c *ThumbnailConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Thumbnail ---\n")
	b.WriteString(fmt.Sprintf("  size: %d\n", c.Size))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	b.WriteString(fmt.Sprintf("  maxbytes: %d\n", c.MaxBytes))
	b.WriteString(fmt.Sprintf("  maxpixels: %d\n", c.MaxPixels))
	return b.String()
}

func (c *ThumbnailConfig) Validate() error {
	if c.Size == 0 {
		c.Size = defaultThumbnailSize
	}
	if c.Size < 0 {
		return fmt.Errorf("thumbnail size must be greater than 0")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("thumbnail fetch timeout must be greater than 0")
	}
	if c.MaxBytes <= 0 {
		return fmt.Errorf("thumbnail maxbytes must be greater than 0")
	}
	if c.MaxPixels == 0 {
		c.MaxPixels = DefaultThumbnailMaxPixels
	}
	if c.MaxPixels < 0 {
		return fmt.Errorf("thumbnail maxpixels must be greater than 0")
	}
	return nil
}
