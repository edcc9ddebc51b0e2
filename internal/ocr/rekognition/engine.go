// Package rekognition recognizes document text with AWS Rekognition DetectText.
package rekognition

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/aws/smithy-go"

	"github.com/saturnino-fabrica-de-software/veriface/internal/domain"
	"github.com/saturnino-fabrica-de-software/veriface/internal/ocr"
)

const (
	// maxImageSize is the largest inline image DetectText accepts (5MB)
	maxImageSize = 5 * 1024 * 1024

	errCodeAccessDenied     = "AccessDeniedException"
	errCodeInvalidParameter = "InvalidParameterException"
	errCodeInvalidFormat    = "InvalidImageFormatException"
	errCodeImageTooLarge    = "ImageTooLargeException"
	errCodeThrottling       = "ThrottlingException"
)

// ErrInvalidCredentials indicates that AWS credentials are invalid or missing
var ErrInvalidCredentials = errors.New("invalid or missing AWS credentials")

// API is the subset of the Rekognition client the engine uses.
type API interface {
	DetectText(ctx context.Context, params *rekognition.DetectTextInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectTextOutput, error)
}

// Engine implements ocr.Engine on top of DetectText LINE detections.
type Engine struct {
	api API
	now func() time.Time
}

// New loads the default AWS credential chain for region.
func New(ctx context.Context, region string) (*Engine, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewWithAPI(rekognition.NewFromConfig(awsCfg)), nil
}

func NewWithAPI(api API) *Engine {
	return &Engine{api: api, now: time.Now}
}

func (e *Engine) Name() string {
	return "rekognition"
}

func (e *Engine) Close() error {
	return nil
}

func (e *Engine) Recognize(ctx context.Context, image []byte) (*ocr.Result, error) {
	if len(image) == 0 || len(image) > maxImageSize {
		return nil, domain.ErrInvalidImage.WithError(fmt.Errorf("image size %d bytes", len(image)))
	}

	start := e.now()
	out, err := e.api.DetectText(ctx, &rekognition.DetectTextInput{
		Image: &types.Image{Bytes: image},
	})
	if err != nil {
		return nil, parseError(err)
	}

	blocks := lineBlocks(out.TextDetections)
	return &ocr.Result{
		FullText:       ocr.JoinLines(blocks),
		Blocks:         blocks,
		Confidence:     meanConfidence(blocks),
		ProcessingTime: e.now().Sub(start),
	}, nil
}

// lineBlocks keeps LINE detections in top-to-bottom, left-to-right order.
func lineBlocks(detections []types.TextDetection) []ocr.TextBlock {
	blocks := make([]ocr.TextBlock, 0, len(detections))
	for _, d := range detections {
		if d.Type != types.TextTypesLine || d.DetectedText == nil {
			continue
		}

		b := ocr.TextBlock{Text: *d.DetectedText}
		if d.Confidence != nil {
			b.Confidence = float64(*d.Confidence) / 100.0
		}
		if d.Geometry != nil && d.Geometry.BoundingBox != nil {
			box := d.Geometry.BoundingBox
			b.BoundingBox = ocr.BoundingBox{
				Left:   float64(value(box.Left)),
				Top:    float64(value(box.Top)),
				Width:  float64(value(box.Width)),
				Height: float64(value(box.Height)),
			}
		}
		blocks = append(blocks, b)
	}

	sort.SliceStable(blocks, func(i, j int) bool {
		a, b := blocks[i].BoundingBox, blocks[j].BoundingBox
		if a.Top != b.Top {
			return a.Top < b.Top
		}
		return a.Left < b.Left
	})
	return blocks
}

func meanConfidence(blocks []ocr.TextBlock) float64 {
	if len(blocks) == 0 {
		return 0
	}
	var sum float64
	for _, b := range blocks {
		sum += b.Confidence
	}
	return sum / float64(len(blocks))
}

func value(p *float32) float32 {
	if p == nil {
		return 0
	}
	return *p
}

// parseError maps Rekognition API errors onto application errors
func parseError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case errCodeInvalidParameter, errCodeInvalidFormat, errCodeImageTooLarge:
			return domain.ErrInvalidImage.WithError(err)
		case errCodeAccessDenied:
			return domain.ErrOCRFailed.WithError(ErrInvalidCredentials)
		case errCodeThrottling:
			return domain.ErrRateLimitExceeded.WithError(err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	return domain.ErrOCRFailed.WithError(err)
}

var _ ocr.Engine = (*Engine)(nil)
