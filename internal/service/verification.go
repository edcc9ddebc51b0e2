package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/saturnino-fabrica-de-software/veriface/internal/audit"
	"github.com/saturnino-fabrica-de-software/veriface/internal/domain"
	"github.com/saturnino-fabrica-de-software/veriface/internal/provider"
)

const (
	DefaultSimilarityThreshold = 0.8
	DefaultQualityThreshold    = 0.7

	idImageLabel   = "id image"
	liveImageLabel = "live image"
)

type VerificationRepositoryInterface interface {
	Create(ctx context.Context, v *domain.Verification) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Verification, error)
}

// VerificationResult is always produced, whether the flow succeeded or not.
// Comparison is nil unless both images held exactly one face.
type VerificationResult struct {
	ID           uuid.UUID              `json:"id"`
	Success      bool                   `json:"success"`
	Comparison   *domain.FaceComparison `json:"comparison"`
	Error        *domain.AppError       `json:"error,omitempty"`
	Steps        []Step                 `json:"processing_steps"`
	ProcessingMs int64                  `json:"processing_ms"`
}

// ImageQuality é o resultado da checagem de qualidade de uma selfie
type ImageQuality struct {
	IsGoodQuality bool     `json:"is_good_quality"`
	Score         float64  `json:"score"`
	Issues        []string `json:"issues"`
}

type VerificationService struct {
	provider         provider.FaceProvider
	repo             VerificationRepositoryInterface
	auditLogger      audit.Logger
	logger           *slog.Logger
	threshold        float64
	qualityThreshold float64
	now              func() time.Time
}

// NewVerificationService creates the orchestrator. repo may be nil when
// persistence is disabled.
func NewVerificationService(
	faceProvider provider.FaceProvider,
	repo VerificationRepositoryInterface,
	auditLogger audit.Logger,
	logger *slog.Logger,
) *VerificationService {
	if auditLogger == nil {
		auditLogger = &audit.NoOpLogger{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &VerificationService{
		provider:         faceProvider,
		repo:             repo,
		auditLogger:      auditLogger,
		logger:           logger,
		threshold:        DefaultSimilarityThreshold,
		qualityThreshold: DefaultQualityThreshold,
		now:              time.Now,
	}
}

func (s *VerificationService) WithThreshold(threshold float64) *VerificationService {
	s.threshold = threshold
	return s
}

func (s *VerificationService) WithQualityThreshold(threshold float64) *VerificationService {
	s.qualityThreshold = threshold
	return s
}

func (s *VerificationService) Threshold() float64 {
	return s.threshold
}

// ProcessVerification compara a face do documento com a selfie.
// CompareFaces só é chamado quando as duas imagens têm exatamente uma face.
func (s *VerificationService) ProcessVerification(ctx context.Context, idImage, liveImage []byte) *VerificationResult {
	trace := newTracer(s.now)
	result := &VerificationResult{ID: uuid.New()}

	finish := func(appErr *domain.AppError) *VerificationResult {
		result.Error = appErr
		result.Steps = trace.steps
		result.ProcessingMs = trace.elapsed().Milliseconds()
		s.record(ctx, result)
		return result
	}

	done := trace.begin("validate_images")
	for _, img := range []struct {
		label string
		data  []byte
	}{{idImageLabel, idImage}, {liveImageLabel, liveImage}} {
		if err := s.provider.ValidateImage(img.data); err != nil {
			appErr := domain.ErrInvalidImage.WithMessage("invalid " + img.label).WithError(err)
			done(nil, appErr)
			return finish(appErr)
		}
	}
	done(nil, nil)

	idFaces, liveFaces, err := s.detectBoth(ctx, trace, idImage, liveImage)
	if err != nil {
		return finish(toAppError(err, domain.ErrComparisonFailed.WithMessage("face detection failed")))
	}

	if appErr := singleFace(idFaces, idImageLabel); appErr != nil {
		return finish(appErr)
	}
	if appErr := singleFace(liveFaces, liveImageLabel); appErr != nil {
		return finish(appErr)
	}

	done = trace.begin("compare_faces")
	started := s.now()
	cmp, err := s.provider.CompareFaces(ctx, idImage, liveImage)
	if err != nil {
		appErr := toAppError(err, domain.ErrComparisonFailed)
		done(nil, appErr)
		return finish(appErr)
	}

	comparison := &domain.FaceComparison{
		Similarity: cmp.Similarity,
		Confidence: cmp.Confidence,
		IsMatch:    cmp.Similarity >= s.threshold,
		Threshold:  s.threshold,
		Details: domain.ComparisonDetails{
			QualityScore:            math.Min(idFaces[0].QualityScore, liveFaces[0].QualityScore),
			FaceDetectionConfidence: math.Min(idFaces[0].Confidence, liveFaces[0].Confidence),
			ProcessingTimeMs:        s.now().Sub(started).Milliseconds(),
		},
	}
	done(comparison, nil)

	result.Success = true
	result.Comparison = comparison
	return finish(nil)
}

// detectBoth runs detection on both images concurrently. A provider
// reporting no face counts as an empty detection.
func (s *VerificationService) detectBoth(ctx context.Context, trace *tracer, idImage, liveImage []byte) ([]provider.DetectedFace, []provider.DetectedFace, error) {
	var idFaces, liveFaces []provider.DetectedFace
	var idErr, liveErr error

	detect := func(ctx context.Context, image []byte, faces *[]provider.DetectedFace, errOut *error, label string) func() error {
		return func() error {
			found, err := s.provider.DetectFaces(ctx, image)
			if err != nil && !errors.Is(err, domain.ErrNoFaceDetected) {
				*errOut = err
				return fmt.Errorf("detect faces in %s: %w", label, err)
			}
			*faces = found
			return nil
		}
	}

	started := s.now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(detect(gctx, idImage, &idFaces, &idErr, idImageLabel))
	g.Go(detect(gctx, liveImage, &liveFaces, &liveErr, liveImageLabel))
	err := g.Wait()

	elapsed := s.now().Sub(started).Milliseconds()
	trace.steps = append(trace.steps,
		detectionStep("detect_id_face", idFaces, idErr, elapsed),
		detectionStep("detect_live_face", liveFaces, liveErr, elapsed),
	)

	return idFaces, liveFaces, err
}

func detectionStep(name string, faces []provider.DetectedFace, err error, elapsed int64) Step {
	step := Step{Name: name, Success: err == nil, DurationMs: elapsed}
	if faces == nil {
		faces = []provider.DetectedFace{}
	}
	step.Detail = faces
	if err != nil {
		step.Error = err.Error()
	}
	return step
}

func singleFace(faces []provider.DetectedFace, label string) *domain.AppError {
	switch {
	case len(faces) == 0:
		return domain.ErrNoFaceDetected.WithMessage("no face detected in " + label)
	case len(faces) > 1:
		return domain.ErrMultipleFaces.WithMessage("multiple faces detected in " + label)
	}
	return nil
}

// record persists and audits the outcome. Neither failure changes the result.
func (s *VerificationService) record(ctx context.Context, result *VerificationResult) {
	v := &domain.Verification{
		ID:           result.ID,
		Success:      result.Success,
		Threshold:    s.threshold,
		ProcessingMs: result.ProcessingMs,
	}
	if result.Comparison != nil {
		v.Similarity = result.Comparison.Similarity
		v.Confidence = result.Comparison.Confidence
		v.IsMatch = result.Comparison.IsMatch
	}
	if result.Error != nil {
		v.ErrorCode = result.Error.Code
	}

	if s.repo != nil {
		if err := s.repo.Create(ctx, v); err != nil {
			s.logger.Warn("failed to save verification", "id", v.ID, "error", err)
		}
	}

	event := audit.Event{
		EventType: audit.EventVerificationCompleted,
		SubjectID: v.ID.String(),
		Provider:  s.provider.Name(),
		Success:   v.Success,
		Error:     v.ErrorCode,
		Metadata: map[string]string{
			"similarity":    strconv.FormatFloat(v.Similarity, 'f', 4, 64),
			"is_match":      strconv.FormatBool(v.IsMatch),
			"processing_ms": strconv.FormatInt(v.ProcessingMs, 10),
		},
	}
	if err := s.auditLogger.Log(ctx, event); err != nil {
		s.logger.Warn("failed to write audit event", "event", event.EventType, "error", err)
	}
}

// GetVerification returns a stored verification record.
func (s *VerificationService) GetVerification(ctx context.Context, id uuid.UUID) (*domain.Verification, error) {
	if s.repo == nil {
		return nil, domain.ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// CheckImageQuality avalia se a imagem serve para comparação facial
func (s *VerificationService) CheckImageQuality(ctx context.Context, image []byte) *ImageQuality {
	if err := s.provider.ValidateImage(image); err != nil {
		return &ImageQuality{Issues: []string{"Invalid image format"}}
	}

	faces, err := s.provider.DetectFaces(ctx, image)
	if err != nil && !errors.Is(err, domain.ErrNoFaceDetected) {
		s.logger.Warn("quality check detection failed", "error", err)
		return &ImageQuality{Issues: []string{"Failed to analyze image quality"}}
	}
	if len(faces) == 0 {
		return &ImageQuality{Issues: []string{"No face detected in image"}}
	}

	issues := []string{}
	points := 100
	deduct := func(n int, issue string) {
		points -= n
		issues = append(issues, issue)
	}

	if len(faces) > 1 {
		deduct(30, "Multiple faces detected in image")
	}

	face := faces[0]
	if face.Confidence < 0.8 {
		deduct(20, "Low face detection confidence")
	}
	if face.QualityScore < s.qualityThreshold {
		deduct(30, "Image quality too low")
	}

	if face.Pose != nil {
		if math.Abs(face.Pose.Yaw) > 15 {
			deduct(20, "Face turned too much to the side")
		}
		if math.Abs(face.Pose.Pitch) > 15 {
			deduct(20, "Face tilted too much up or down")
		}
		if math.Abs(face.Pose.Roll) > 10 {
			deduct(10, "Face rotated too much")
		}
	}

	points = max(points, 0)
	return &ImageQuality{
		IsGoodQuality: points >= 60,
		Score:         float64(points) / 100,
		Issues:        issues,
	}
}
