package rekognition

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/veriface/internal/audit"
	"github.com/saturnino-fabrica-de-software/veriface/internal/domain"
	"github.com/saturnino-fabrica-de-software/veriface/internal/provider"
)

// TestProviderImplementsInterface verifies that Provider implements FaceProvider
func TestProviderImplementsInterface(t *testing.T) {
	var _ provider.FaceProvider = (*Provider)(nil)
}

// TestDefaultConfig verifies default configuration values
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "us-east-1", cfg.Region)
	assert.Equal(t, 0.5, cfg.SimilarityThreshold)
}

// ptr is a helper function to get pointer to a value
func ptr[T any](v T) *T {
	return &v
}

// fakeImageData returns fake image data above the minimum size
func fakeImageData() []byte {
	data := make([]byte, 1500)
	for i := range data {
		data[i] = byte(i % 256)
	}
	return data
}

func newTestProvider(mock *mockRekognitionAPI, opts ...ProviderOption) *Provider {
	return newProvider(&Client{rekognition: mock, config: DefaultConfig()}, opts...)
}

// recordingAudit keeps every event for assertions
type recordingAudit struct {
	events []audit.Event
}

func (r *recordingAudit) Log(_ context.Context, e audit.Event) error {
	r.events = append(r.events, e)
	return nil
}

// TestCalculateQualityScore verifies quality score calculation
func TestCalculateQualityScore(t *testing.T) {
	tests := []struct {
		name    string
		quality *types.ImageQuality
		want    float64
	}{
		{name: "nil quality", quality: nil, want: 0.0},
		{
			name:    "perfect quality",
			quality: &types.ImageQuality{Brightness: ptr(float32(100.0)), Sharpness: ptr(float32(100.0))},
			want:    1.0,
		},
		{
			name:    "medium quality",
			quality: &types.ImageQuality{Brightness: ptr(float32(50.0)), Sharpness: ptr(float32(50.0))},
			want:    0.5,
		},
		{
			name:    "sharpness weighted more heavily",
			quality: &types.ImageQuality{Brightness: ptr(float32(100.0)), Sharpness: ptr(float32(0.0))},
			want:    0.3,
		},
		{
			name:    "only sharpness set",
			quality: &types.ImageQuality{Sharpness: ptr(float32(80.0))},
			want:    0.56,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, calculateQualityScore(tt.quality), 0.0001)
		})
	}
}

// TestDetectFaces_Success verifies successful face detection
func TestDetectFaces_Success(t *testing.T) {
	mock := &mockRekognitionAPI{
		detectFacesFunc: func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
			assert.Equal(t, []types.Attribute{types.AttributeAll}, params.Attributes)
			return &rekognition.DetectFacesOutput{
				FaceDetails: []types.FaceDetail{
					{
						BoundingBox: &types.BoundingBox{
							Left:   ptr(float32(0.1)),
							Top:    ptr(float32(0.2)),
							Width:  ptr(float32(0.3)),
							Height: ptr(float32(0.4)),
						},
						Confidence: ptr(float32(99.5)),
						Quality: &types.ImageQuality{
							Brightness: ptr(float32(80.0)),
							Sharpness:  ptr(float32(90.0)),
						},
						Landmarks: []types.Landmark{
							{Type: types.LandmarkTypeEyeLeft, X: ptr(float32(0.35)), Y: ptr(float32(0.4))},
						},
						Pose: &types.Pose{Pitch: ptr(float32(1)), Roll: ptr(float32(2)), Yaw: ptr(float32(3))},
					},
				},
			}, nil
		},
	}

	rec := &recordingAudit{}
	p := newTestProvider(mock, WithAuditLogger(rec))

	faces, err := p.DetectFaces(context.Background(), fakeImageData())

	require.NoError(t, err)
	require.Len(t, faces, 1)
	assert.InDelta(t, 0.1, faces[0].BoundingBox.X, 0.01)
	assert.InDelta(t, 0.2, faces[0].BoundingBox.Y, 0.01)
	assert.InDelta(t, 0.3, faces[0].BoundingBox.Width, 0.01)
	assert.InDelta(t, 0.4, faces[0].BoundingBox.Height, 0.01)
	assert.InDelta(t, 0.995, faces[0].Confidence, 0.001)
	assert.InDelta(t, 0.87, faces[0].QualityScore, 0.001)
	require.Len(t, faces[0].Landmarks, 1)
	assert.Equal(t, "eyeLeft", faces[0].Landmarks[0].Type)
	require.NotNil(t, faces[0].Pose)
	assert.InDelta(t, 3.0, faces[0].Pose.Yaw, 0.001)

	require.Len(t, rec.events, 1)
	assert.Equal(t, audit.EventFaceDetected, rec.events[0].EventType)
	assert.True(t, rec.events[0].Success)
	assert.Equal(t, "1", rec.events[0].Metadata["faces_count"])
}

// TestDetectFaces_NoFaces verifies handling of images with no faces
func TestDetectFaces_NoFaces(t *testing.T) {
	p := newTestProvider(&mockRekognitionAPI{})

	faces, err := p.DetectFaces(context.Background(), fakeImageData())

	require.NoError(t, err)
	assert.Empty(t, faces)
}

func TestDetectFaces_MultipleFaces(t *testing.T) {
	mock := &mockRekognitionAPI{
		detectFacesFunc: func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
			return &rekognition.DetectFacesOutput{
				FaceDetails: []types.FaceDetail{
					{Confidence: ptr(float32(99))},
					{Confidence: ptr(float32(97))},
				},
			}, nil
		},
	}

	faces, err := newTestProvider(mock).DetectFaces(context.Background(), fakeImageData())

	require.NoError(t, err)
	assert.Len(t, faces, 2)
}

func TestDetectFaces_Errors(t *testing.T) {
	tests := []struct {
		name    string
		image   []byte
		apiErr  error
		wantErr error
	}{
		{name: "empty image", image: nil, wantErr: domain.ErrInvalidImage},
		{name: "image too large", image: make([]byte, maxImageSize+1), wantErr: domain.ErrInvalidImage},
		{
			name:    "invalid format",
			image:   fakeImageData(),
			apiErr:  &smithy.GenericAPIError{Code: errCodeInvalidFormat, Message: "unsupported"},
			wantErr: domain.ErrInvalidImage,
		},
		{
			name:    "access denied",
			image:   fakeImageData(),
			apiErr:  &smithy.GenericAPIError{Code: errCodeAccessDenied, Message: "denied"},
			wantErr: ErrInvalidCredentials,
		},
		{
			name:    "throttled",
			image:   fakeImageData(),
			apiErr:  &smithy.GenericAPIError{Code: errCodeThrottling, Message: "slow down"},
			wantErr: domain.ErrRateLimitExceeded,
		},
		{
			name:    "network",
			image:   fakeImageData(),
			apiErr:  assert.AnError,
			wantErr: assert.AnError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockRekognitionAPI{
				detectFacesFunc: func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
					return nil, tt.apiErr
				},
			}
			rec := &recordingAudit{}

			_, err := newTestProvider(mock, WithAuditLogger(rec)).DetectFaces(context.Background(), tt.image)

			assert.ErrorIs(t, err, tt.wantErr)
			require.Len(t, rec.events, 1)
			assert.False(t, rec.events[0].Success)
		})
	}
}

func TestCompareFaces_Success(t *testing.T) {
	mock := &mockRekognitionAPI{
		compareFacesFunc: func(ctx context.Context, params *rekognition.CompareFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.CompareFacesOutput, error) {
			assert.InDelta(t, 50.0, float64(*params.SimilarityThreshold), 0.001)
			assert.NotEmpty(t, params.SourceImage.Bytes)
			assert.NotEmpty(t, params.TargetImage.Bytes)
			return &rekognition.CompareFacesOutput{
				SourceImageFace: &types.ComparedSourceImageFace{Confidence: ptr(float32(99.9))},
				FaceMatches: []types.CompareFacesMatch{
					{Similarity: ptr(float32(98.5)), Face: &types.ComparedFace{Confidence: ptr(float32(97.0))}},
					{Similarity: ptr(float32(60.0))},
				},
			}, nil
		},
	}

	cmp, err := newTestProvider(mock).CompareFaces(context.Background(), fakeImageData(), fakeImageData())

	require.NoError(t, err)
	assert.InDelta(t, 0.985, cmp.Similarity, 0.0001)
	assert.InDelta(t, 0.97, cmp.Confidence, 0.0001)
}

func TestCompareFaces_NoMatch(t *testing.T) {
	mock := &mockRekognitionAPI{
		compareFacesFunc: func(ctx context.Context, params *rekognition.CompareFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.CompareFacesOutput, error) {
			return &rekognition.CompareFacesOutput{
				SourceImageFace: &types.ComparedSourceImageFace{Confidence: ptr(float32(99.0))},
				UnmatchedFaces:  []types.ComparedFace{{Confidence: ptr(float32(98.0))}},
			}, nil
		},
	}
	rec := &recordingAudit{}

	cmp, err := newTestProvider(mock, WithAuditLogger(rec)).CompareFaces(context.Background(), fakeImageData(), fakeImageData())

	require.NoError(t, err)
	assert.Equal(t, 0.0, cmp.Similarity)
	assert.InDelta(t, 0.99, cmp.Confidence, 0.0001)
	require.Len(t, rec.events, 1)
	assert.Equal(t, "false", rec.events[0].Metadata["matched"])
}

func TestCompareFaces_NoFace(t *testing.T) {
	mock := &mockRekognitionAPI{
		compareFacesFunc: func(ctx context.Context, params *rekognition.CompareFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.CompareFacesOutput, error) {
			return nil, &smithy.GenericAPIError{Code: errCodeInvalidParameter, Message: "Request has invalid parameters"}
		},
	}

	_, err := newTestProvider(mock).CompareFaces(context.Background(), fakeImageData(), fakeImageData())

	assert.ErrorIs(t, err, domain.ErrNoFaceDetected)
	assert.ErrorIs(t, err, ErrNoFaceDetected)
}

// TestParseNoFaceError verifies error parsing for no face detected scenarios
func TestParseNoFaceError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{name: "nil error", err: nil, wantErr: nil},
		{name: "non-AWS error", err: assert.AnError, wantErr: assert.AnError},
		{
			name:    "invalid parameter",
			err:     &smithy.GenericAPIError{Code: errCodeInvalidParameter, Message: "no face"},
			wantErr: ErrNoFaceDetected,
		},
		{
			name:    "other API error passes through",
			err:     &smithy.GenericAPIError{Code: errCodeAccessDenied},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParseNoFaceError(tt.err)

			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			if tt.wantErr == nil {
				assert.Equal(t, tt.err, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateImage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 640, 480)), nil))
	p := newTestProvider(&mockRekognitionAPI{})

	assert.NoError(t, p.ValidateImage(buf.Bytes()))
	assert.ErrorIs(t, p.ValidateImage(make([]byte, maxImageSize+1)), domain.ErrInvalidImage)
	assert.ErrorIs(t, p.ValidateImage(fakeImageData()), domain.ErrInvalidImage)
}

// skipIfNoAWSCredentials skips the test if AWS credentials are not configured
func skipIfNoAWSCredentials(t *testing.T) {
	t.Helper()
	if os.Getenv("AWS_ACCESS_KEY_ID") == "" && os.Getenv("AWS_PROFILE") == "" {
		t.Skip("AWS credentials not configured")
	}
}

func TestIntegration_NewProvider(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	skipIfNoAWSCredentials(t)

	p, err := NewProvider(context.Background(), DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "rekognition", p.Name())

	// random bytes are not an image Rekognition can decode
	_, err = p.DetectFaces(context.Background(), fakeImageData())
	assert.ErrorIs(t, err, domain.ErrInvalidImage)
}
