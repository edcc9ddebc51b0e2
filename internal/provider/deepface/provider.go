package deepface

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"

	"github.com/saturnino-fabrica-de-software/veriface/internal/domain"
	"github.com/saturnino-fabrica-de-software/veriface/internal/provider"
)

const (
	// minFaceArea is the minimum face area (in pixels²) for reliable detection
	minFaceArea = 2500 // 50x50 pixels
	// maxFaceArea is used for confidence scaling
	maxFaceArea = 250000 // 500x500 pixels
)

// Provider implements provider.FaceProvider using DeepFace API
type Provider struct {
	client *Client
}

// NewProvider creates a new DeepFace provider
func NewProvider(config Config) *Provider {
	return &Provider{
		client: NewClient(config),
	}
}

func (p *Provider) Name() string {
	return "deepface"
}

// DetectFaces detects faces in the image. An image DeepFace cannot find a
// face in yields an empty slice, not an error.
func (p *Provider) DetectFaces(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	resp, err := p.represent(ctx, image)
	if err != nil {
		if isNoFaceError(err) {
			return []provider.DetectedFace{}, nil
		}
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	faces := make([]provider.DetectedFace, 0, len(resp.Results))
	for _, result := range resp.Results {
		faceArea := float64(result.FacialArea.W * result.FacialArea.H)

		faces = append(faces, provider.DetectedFace{
			BoundingBox: provider.BoundingBox{
				X:      float64(result.FacialArea.X),
				Y:      float64(result.FacialArea.Y),
				Width:  float64(result.FacialArea.W),
				Height: float64(result.FacialArea.H),
			},
			Confidence:   faceConfidence(result),
			QualityScore: calculateQuality(faceArea),
		})
	}

	return faces, nil
}

// CompareFaces asks DeepFace to verify the pair in one call. Similarity is
// 1 - cosine distance, clamped to [0, 1].
func (p *Provider) CompareFaces(ctx context.Context, source, target []byte) (*provider.Comparison, error) {
	resp, err := p.client.Verify(ctx,
		base64.StdEncoding.EncodeToString(source),
		base64.StdEncoding.EncodeToString(target),
	)
	if err != nil {
		if isNoFaceError(err) {
			return nil, domain.ErrNoFaceDetected.WithError(err)
		}
		return nil, fmt.Errorf("compare faces: %w", err)
	}

	srcArea := resp.FacialAreas.Img1.W * resp.FacialAreas.Img1.H
	dstArea := resp.FacialAreas.Img2.W * resp.FacialAreas.Img2.H
	if srcArea == 0 || dstArea == 0 {
		return nil, domain.ErrNoFaceDetected.WithError(ErrNoFaceInResponse)
	}

	return &provider.Comparison{
		Similarity: math.Max(0, math.Min(1, 1-resp.Distance)),
		Confidence: math.Min(calculateConfidence(float64(srcArea)), calculateConfidence(float64(dstArea))),
	}, nil
}

func (p *Provider) ValidateImage(image []byte) error {
	_, err := provider.ValidateImage(image)
	return err
}

func (p *Provider) represent(ctx context.Context, image []byte) (*RepresentResponse, error) {
	return p.client.Represent(ctx, base64.StdEncoding.EncodeToString(image))
}

// faceConfidence prefers the detector score and falls back to a size-based
// estimate for detectors that do not report one.
func faceConfidence(r RepresentResult) float64 {
	if r.FaceConfidence != nil && *r.FaceConfidence > 0 {
		return math.Min(1, *r.FaceConfidence)
	}
	return calculateConfidence(float64(r.FacialArea.W * r.FacialArea.H))
}

// calculateConfidence estimates confidence based on face area
// Larger faces are more likely to be accurately detected
func calculateConfidence(faceArea float64) float64 {
	if faceArea < minFaceArea {
		return 0.5 // Low confidence for very small faces
	}
	// Scale from 0.7 to 0.99 based on face area
	normalized := math.Min(1.0, (faceArea-minFaceArea)/(maxFaceArea-minFaceArea))
	return 0.7 + (normalized * 0.29)
}

// calculateQuality estimates quality score based on face area
func calculateQuality(faceArea float64) float64 {
	if faceArea < minFaceArea {
		return 0.4 // Low quality for very small faces
	}
	// Scale from 0.6 to 0.95 based on face area
	normalized := math.Min(1.0, (faceArea-minFaceArea)/(maxFaceArea-minFaceArea))
	return 0.6 + (normalized * 0.35)
}

// Ensure Provider implements provider.FaceProvider
var _ provider.FaceProvider = (*Provider)(nil)
