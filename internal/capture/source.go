package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"sync"

	_ "golang.org/x/image/webp"
)

var (
	ErrNoFrame       = errors.New("capture: no frame available")
	ErrSourceStopped = errors.New("capture: source is not running")
)

// FrameSource is a live video feed.
type FrameSource interface {
	Start(ctx context.Context) error
	Stop()
	// Frame returns the latest decoded frame.
	Frame() (image.Image, error)
}

// StillCamera is a native capture path that returns one encoded photo per call.
type StillCamera interface {
	Capture(ctx context.Context) ([]byte, error)
}

// BufferedSource holds the most recent frame pushed by a remote client.
type BufferedSource struct {
	mu      sync.RWMutex
	running bool
	latest  image.Image
}

func NewBufferedSource() *BufferedSource {
	return &BufferedSource{}
}

func (s *BufferedSource) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
	s.latest = nil
	return nil
}

func (s *BufferedSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.latest = nil
}

// Push replaces the latest frame. It reports whether the frame was the
// first one since Start, which is when the stream has usable dimensions.
func (s *BufferedSource) Push(img image.Image) (first bool, err error) {
	if img == nil || img.Bounds().Empty() {
		return false, ErrNoFrame
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return false, ErrSourceStopped
	}
	first = s.latest == nil
	s.latest = img
	return first, nil
}

func (s *BufferedSource) Frame() (image.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.running {
		return nil, ErrSourceStopped
	}
	if s.latest == nil {
		return nil, ErrNoFrame
	}
	return s.latest, nil
}

// DecodeFrame decodes a JPEG, PNG or WebP frame.
func DecodeFrame(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, ErrNoFrame
	}
	return img, nil
}

// EncodeJPEG encodes a captured frame at quality 90.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return buf.Bytes(), nil
}
