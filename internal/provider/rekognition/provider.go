package rekognition

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/saturnino-fabrica-de-software/veriface/internal/audit"
	"github.com/saturnino-fabrica-de-software/veriface/internal/domain"
	"github.com/saturnino-fabrica-de-software/veriface/internal/provider"
)

// maxImageSize is the maximum image size supported by AWS Rekognition (5MB)
const maxImageSize = 5 * 1024 * 1024

// Provider implements the provider.FaceProvider interface using AWS Rekognition
type Provider struct {
	client      *Client
	auditLogger audit.Logger
}

// ProviderOption defines optional configuration for Provider
type ProviderOption func(*Provider)

// WithAuditLogger sets the audit logger for the provider
func WithAuditLogger(logger audit.Logger) ProviderOption {
	return func(p *Provider) {
		p.auditLogger = logger
	}
}

// Ensure Provider implements provider.FaceProvider interface at compile time
var _ provider.FaceProvider = (*Provider)(nil)

// NewProvider creates a new Rekognition provider
func NewProvider(ctx context.Context, cfg Config, opts ...ProviderOption) (*Provider, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create rekognition client: %w", err)
	}

	return newProvider(client, opts...), nil
}

func newProvider(client *Client, opts ...ProviderOption) *Provider {
	p := &Provider{client: client}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() string {
	return "rekognition"
}

// logAudit logs an audit event if an audit logger is configured
// Audit failure does not affect the operation (fire-and-forget)
func (p *Provider) logAudit(ctx context.Context, eventType audit.EventType, success bool, err error, metadata map[string]string) {
	if p.auditLogger == nil {
		return
	}

	event := audit.Event{
		EventType: eventType,
		Provider:  "rekognition",
		Success:   success,
		Metadata:  metadata,
	}

	if err != nil {
		event.Error = err.Error()
	}

	_ = p.auditLogger.Log(ctx, event)
}

// ValidateImage checks the generic image rules plus the Rekognition 5MB limit
func (p *Provider) ValidateImage(image []byte) error {
	if len(image) > maxImageSize {
		return domain.ErrInvalidImage.WithError(fmt.Errorf("image too large (%d bytes, maximum %d)", len(image), maxImageSize))
	}
	_, err := provider.ValidateImage(image)
	return err
}

// DetectFaces detects faces in an image using AWS Rekognition DetectFaces API
// Returns an empty slice if no faces are detected (not an error)
func (p *Provider) DetectFaces(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	if len(image) == 0 || len(image) > maxImageSize {
		err := domain.ErrInvalidImage.WithError(fmt.Errorf("image size %d bytes", len(image)))
		p.logAudit(ctx, audit.EventFaceDetected, false, err, map[string]string{
			"image_size": strconv.Itoa(len(image)),
		})
		return nil, err
	}

	input := &rekognition.DetectFacesInput{
		Image: &types.Image{
			Bytes: image,
		},
		Attributes: []types.Attribute{types.AttributeAll},
	}

	output, err := p.client.rekognition.DetectFaces(ctx, input)
	if err != nil {
		p.logAudit(ctx, audit.EventFaceDetected, false, err, map[string]string{
			"image_size": strconv.Itoa(len(image)),
		})
		return nil, fmt.Errorf("detect faces: %w", mapError(err))
	}

	// Convert AWS Rekognition face details to provider.DetectedFace
	faces := make([]provider.DetectedFace, 0, len(output.FaceDetails))
	for _, detail := range output.FaceDetails {
		face := provider.DetectedFace{
			Confidence:   float64(aws.ToFloat32(detail.Confidence)) / 100.0,
			QualityScore: calculateQualityScore(detail.Quality),
			Landmarks:    convertLandmarks(detail.Landmarks),
		}
		if box := detail.BoundingBox; box != nil {
			face.BoundingBox = provider.BoundingBox{
				X:      float64(aws.ToFloat32(box.Left)),
				Y:      float64(aws.ToFloat32(box.Top)),
				Width:  float64(aws.ToFloat32(box.Width)),
				Height: float64(aws.ToFloat32(box.Height)),
			}
		}
		if pose := detail.Pose; pose != nil {
			face.Pose = &provider.Pose{
				Pitch: float64(aws.ToFloat32(pose.Pitch)),
				Roll:  float64(aws.ToFloat32(pose.Roll)),
				Yaw:   float64(aws.ToFloat32(pose.Yaw)),
			}
		}
		faces = append(faces, face)
	}

	p.logAudit(ctx, audit.EventFaceDetected, true, nil, map[string]string{
		"faces_count": strconv.Itoa(len(faces)),
		"image_size":  strconv.Itoa(len(image)),
	})

	return faces, nil
}

// CompareFaces compares the largest face of source against the faces in target
// using AWS Rekognition CompareFaces API. No match above the configured floor
// yields similarity 0.
func (p *Provider) CompareFaces(ctx context.Context, source, target []byte) (*provider.Comparison, error) {
	sizes := map[string]string{
		"source_image_size": strconv.Itoa(len(source)),
		"target_image_size": strconv.Itoa(len(target)),
	}

	input := &rekognition.CompareFacesInput{
		SourceImage: &types.Image{
			Bytes: source,
		},
		TargetImage: &types.Image{
			Bytes: target,
		},
		SimilarityThreshold: aws.Float32(float32(p.client.config.SimilarityThreshold * 100)), // Convert 0-1 to 0-100
	}

	output, err := p.client.rekognition.CompareFaces(ctx, input)
	if err != nil {
		mapped := mapError(err)
		p.logAudit(ctx, audit.EventFaceCompared, false, mapped, sizes)
		return nil, fmt.Errorf("compare faces: %w", mapped)
	}

	cmp := &provider.Comparison{}
	if output.SourceImageFace != nil {
		cmp.Confidence = float64(aws.ToFloat32(output.SourceImageFace.Confidence)) / 100.0
	}

	// Matches come sorted by similarity; the first is the best one
	if len(output.FaceMatches) > 0 {
		best := output.FaceMatches[0]
		cmp.Similarity = float64(aws.ToFloat32(best.Similarity)) / 100.0
		if best.Face != nil && best.Face.Confidence != nil {
			c := float64(*best.Face.Confidence) / 100.0
			if cmp.Confidence == 0 || c < cmp.Confidence {
				cmp.Confidence = c
			}
		}
	}

	sizes["similarity"] = fmt.Sprintf("%.4f", cmp.Similarity)
	sizes["matched"] = strconv.FormatBool(len(output.FaceMatches) > 0)
	p.logAudit(ctx, audit.EventFaceCompared, true, nil, sizes)

	return cmp, nil
}

// calculateQualityScore computes an overall quality score from Rekognition quality metrics
// Returns a score between 0.0 (poor quality) and 1.0 (excellent quality)
func calculateQualityScore(quality *types.ImageQuality) float64 {
	if quality == nil {
		return 0.0
	}

	brightness := float64(aws.ToFloat32(quality.Brightness)) / 100.0
	sharpness := float64(aws.ToFloat32(quality.Sharpness)) / 100.0

	// Weight sharpness more heavily as it's critical for face recognition
	return brightness*0.3 + sharpness*0.7
}

func convertLandmarks(in []types.Landmark) []provider.Landmark {
	if len(in) == 0 {
		return nil
	}
	out := make([]provider.Landmark, 0, len(in))
	for _, l := range in {
		out = append(out, provider.Landmark{
			Type: string(l.Type),
			X:    float64(aws.ToFloat32(l.X)),
			Y:    float64(aws.ToFloat32(l.Y)),
		})
	}
	return out
}
