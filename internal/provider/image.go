package provider

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/saturnino-fabrica-de-software/veriface/internal/domain"
)

const (
	// MinImageSize rejects thumbnails and truncated uploads
	MinImageSize = 1000
	// MaxImageSize is the upload ceiling (10MB)
	MaxImageSize = 10 * 1024 * 1024
)

// ImageInfo describes a decodable image without decoding its pixels
type ImageInfo struct {
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ValidateImage checks size bounds and that the bytes are a JPEG, PNG or WebP
// image with non-zero dimensions.
func ValidateImage(data []byte) (*ImageInfo, error) {
	if len(data) == 0 {
		return nil, domain.ErrInvalidImage.WithMessage("Image is empty")
	}
	if len(data) < MinImageSize {
		return nil, domain.ErrInvalidImage.WithError(fmt.Errorf("image too small (%d bytes, minimum %d)", len(data), MinImageSize))
	}
	if len(data) > MaxImageSize {
		return nil, domain.ErrInvalidImage.WithError(fmt.Errorf("image too large (%d bytes, maximum %d)", len(data), MaxImageSize))
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, domain.ErrInvalidImage.WithError(fmt.Errorf("invalid dimensions %dx%d", cfg.Width, cfg.Height))
	}

	return &ImageInfo{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}
