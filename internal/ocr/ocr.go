// Package ocr defines the text-recognition boundary: engines turn an image
// into recognized text with per-block confidence and position.
package ocr

import (
	"context"
	"strings"
	"time"
)

// BoundingBox is normalized to the image size (0-1).
type BoundingBox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type TextBlock struct {
	Text        string      `json:"text"`
	Confidence  float64     `json:"confidence"`
	BoundingBox BoundingBox `json:"bounding_box"`
}

// Result is the raw engine output. Blocks are in reading order.
type Result struct {
	FullText       string        `json:"full_text"`
	Blocks         []TextBlock   `json:"blocks"`
	Confidence     float64       `json:"confidence"`
	ProcessingTime time.Duration `json:"processing_time"`
}

// Engine recognizes text in an encoded image. Implementations may hold
// expensive state and are not required to be safe for concurrent use.
type Engine interface {
	Recognize(ctx context.Context, image []byte) (*Result, error)
	Name() string
	Close() error
}

// JoinLines builds FullText from blocks in reading order.
func JoinLines(blocks []TextBlock) string {
	lines := make([]string, 0, len(blocks))
	for _, b := range blocks {
		lines = append(lines, b.Text)
	}
	return strings.Join(lines, "\n")
}
