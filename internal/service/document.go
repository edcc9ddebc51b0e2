package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/saturnino-fabrica-de-software/veriface/internal/audit"
	"github.com/saturnino-fabrica-de-software/veriface/internal/domain"
	"github.com/saturnino-fabrica-de-software/veriface/internal/idcard"
	"github.com/saturnino-fabrica-de-software/veriface/internal/ocr"
	ocrmock "github.com/saturnino-fabrica-de-software/veriface/internal/ocr/mock"
)

const (
	DefaultRecognitionTimeout = 30 * time.Second
	DefaultOCRCacheTTL        = 10 * time.Minute

	fallbackWarning = "Using mock data due to OCR service issues"
	expiredWarning  = "Document is expired"
)

type ExtractionRepositoryInterface interface {
	Create(ctx context.Context, e *domain.DocumentExtraction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.DocumentExtraction, error)
}

// OCRCache guarda resultados de OCR por hash da imagem (ex: cache.PGCache)
type OCRCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// DocumentResult is the outcome of processing an ID card image. A record
// that fails validation is not an error: Success is false and Errors lists
// what is missing.
type DocumentResult struct {
	ID              uuid.UUID        `json:"id"`
	Success         bool             `json:"success"`
	Data            *idcard.Record   `json:"data"`
	Format          string           `json:"format,omitempty"`
	ExtractedFields []idcard.Field   `json:"extracted_fields"`
	Confidence      float64          `json:"confidence"`
	Quality         idcard.Quality   `json:"quality"`
	Age             *int             `json:"age,omitempty"`
	Degraded        bool             `json:"degraded"`
	Errors          []string         `json:"errors"`
	Warnings        []string         `json:"warnings"`
	Error           *domain.AppError `json:"error,omitempty"`
	Steps           []Step           `json:"processing_steps"`
	ProcessingMs    int64            `json:"processing_ms"`
}

type DocumentService struct {
	engine      ocr.Engine
	fallback    ocr.Engine
	extractor   *idcard.Extractor
	cache       OCRCache
	cacheTTL    time.Duration
	repo        ExtractionRepositoryInterface
	auditLogger audit.Logger
	logger      *slog.Logger
	sem         *semaphore.Weighted
	timeout     time.Duration
	now         func() time.Time
}

type DocumentOption func(*DocumentService)

// WithCache enables the OCR result cache
func WithCache(cache OCRCache, ttl time.Duration) DocumentOption {
	return func(s *DocumentService) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

func WithExtractionRepository(repo ExtractionRepositoryInterface) DocumentOption {
	return func(s *DocumentService) {
		s.repo = repo
	}
}

func WithRecognitionTimeout(timeout time.Duration) DocumentOption {
	return func(s *DocumentService) {
		s.timeout = timeout
	}
}

// WithFallbackEngine replaces the offline engine used when recognition fails
func WithFallbackEngine(engine ocr.Engine) DocumentOption {
	return func(s *DocumentService) {
		s.fallback = engine
	}
}

func WithClock(now func() time.Time) DocumentOption {
	return func(s *DocumentService) {
		s.now = now
	}
}

func WithAuditLogger(logger audit.Logger) DocumentOption {
	return func(s *DocumentService) {
		s.auditLogger = logger
	}
}

// NewDocumentService wraps a shared OCR engine. Calls into the engine are
// serialized; the engine itself is owned by the caller.
func NewDocumentService(engine ocr.Engine, extractor *idcard.Extractor, logger *slog.Logger, opts ...DocumentOption) *DocumentService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &DocumentService{
		engine:      engine,
		fallback:    ocrmock.New(),
		extractor:   extractor,
		cacheTTL:    DefaultOCRCacheTTL,
		auditLogger: &audit.NoOpLogger{},
		logger:      logger,
		sem:         semaphore.NewWeighted(1),
		timeout:     DefaultRecognitionTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Formats lists the supported document formats in detection order
func (s *DocumentService) Formats() []idcard.FormatInfo {
	formats := s.extractor.Formats()
	out := make([]idcard.FormatInfo, 0, len(formats))
	for _, f := range formats {
		out = append(out, f.Info())
	}
	return out
}

// ProcessIDCard runs OCR, format detection, extraction, validation and
// quality scoring. formatName is optional; when empty the format is detected.
// Only an empty image or an unknown format name return an error; engine
// failures fall back to the offline engine and mark the result Degraded.
func (s *DocumentService) ProcessIDCard(ctx context.Context, image []byte, formatName string) (*DocumentResult, error) {
	if len(image) == 0 {
		return nil, domain.ErrInvalidImage.WithMessage("image is empty")
	}

	var format *idcard.Format
	if formatName != "" {
		f, ok := s.extractor.FormatByName(formatName)
		if !ok {
			return nil, domain.ErrUnknownFormat.WithMessage(fmt.Sprintf("unknown ID card format %q", formatName))
		}
		format = f
	}

	trace := newTracer(s.now)
	result := &DocumentResult{
		ID:              uuid.New(),
		ExtractedFields: []idcard.Field{},
		Errors:          []string{},
		Warnings:        []string{},
	}

	done := trace.begin("ocr")
	res, degraded, err := s.recognize(ctx, image)
	if err != nil {
		done(nil, err)
		result.Error = toAppError(err, domain.ErrOCRFailed)
		result.Errors = append(result.Errors, err.Error())
		result.Steps = trace.steps
		result.ProcessingMs = trace.elapsed().Milliseconds()
		return result, nil
	}
	done(map[string]any{"engine": engineName(s, degraded), "confidence": res.Confidence, "blocks": len(res.Blocks)}, nil)

	if degraded {
		result.Degraded = true
		result.Warnings = append(result.Warnings, fallbackWarning)
	}

	done = trace.begin("detect_format")
	if format == nil {
		format = s.extractor.DetectFormat(res.FullText)
	}
	done(format.Name, nil)

	done = trace.begin("extract_fields")
	rec := s.extractor.Extract(res, format)
	result.ExtractedFields = rec.ExtractedFields()
	done(result.ExtractedFields, nil)

	done = trace.begin("validate")
	validation := s.extractor.Validate(rec)
	if !validation.Valid {
		result.Errors = append(result.Errors, validation.Problems...)
	}
	done(validation.Valid, nil)

	now := s.now()
	result.Success = validation.Valid
	result.Data = rec
	result.Format = rec.Format
	result.Confidence = rec.Overall
	result.Quality = idcard.Score(rec, now)

	if age, ok := idcard.CalculateAge(rec.DateOfBirth, now); ok {
		result.Age = &age
	}
	if rec.ExpiryDate != "" && idcard.IsExpired(rec.ExpiryDate, now) {
		result.Warnings = append(result.Warnings, expiredWarning)
	}

	result.Steps = trace.steps
	result.ProcessingMs = trace.elapsed().Milliseconds()

	s.record(ctx, result)
	return result, nil
}

func engineName(s *DocumentService, degraded bool) string {
	if degraded {
		return s.fallback.Name()
	}
	return s.engine.Name()
}

// recognize consults the cache, then the primary engine, then the fallback
func (s *DocumentService) recognize(ctx context.Context, image []byte) (*ocr.Result, bool, error) {
	key := cacheKey(image)
	if res, ok := s.cached(ctx, key); ok {
		return res, false, nil
	}

	res, err := s.recognizePrimary(ctx, image)
	if err == nil {
		s.store(ctx, key, res)
		return res, false, nil
	}

	s.logger.Warn("ocr engine failed, using fallback engine",
		"engine", s.engine.Name(),
		"fallback", s.fallback.Name(),
		"error", err,
	)
	s.audit(ctx, audit.Event{
		EventType: audit.EventOCRFallback,
		Provider:  s.engine.Name(),
		Success:   false,
		Error:     err.Error(),
	})

	res, fallbackErr := s.fallback.Recognize(ctx, image)
	if fallbackErr != nil {
		return nil, false, domain.ErrOCRFailed.WithError(errors.Join(err, fallbackErr))
	}
	return res, true, nil
}

// recognizePrimary serializes access to the shared engine and bounds each call
func (s *DocumentService) recognizePrimary(ctx context.Context, image []byte) (*ocr.Result, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("wait for ocr engine: %w", err)
	}
	defer s.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.engine.Recognize(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("%s recognize: %w", s.engine.Name(), err)
	}
	return res, nil
}

func cacheKey(image []byte) string {
	sum := sha256.Sum256(image)
	return "ocr:" + hex.EncodeToString(sum[:])
}

func (s *DocumentService) cached(ctx context.Context, key string) (*ocr.Result, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	var res ocr.Result
	if err := json.Unmarshal(data, &res); err != nil {
		s.logger.Warn("discarding unreadable ocr cache entry", "key", key, "error", err)
		return nil, false
	}
	return &res, true
}

func (s *DocumentService) store(ctx context.Context, key string, res *ocr.Result) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache ocr result", "key", key, "error", err)
	}
}

// record persists and audits an extraction. Personal data stays out of the
// audit event.
func (s *DocumentService) record(ctx context.Context, result *DocumentResult) {
	if s.repo != nil {
		extraction := &domain.DocumentExtraction{
			ID:           result.ID,
			Format:       result.Format,
			Fields:       result.Data.Values(),
			Confidence:   result.Confidence,
			QualityScore: result.Quality.Score,
			Degraded:     result.Degraded,
		}
		if err := s.repo.Create(ctx, extraction); err != nil {
			s.logger.Warn("failed to save document extraction", "id", result.ID, "error", err)
		}
	}

	s.audit(ctx, audit.Event{
		EventType: audit.EventDocumentExtracted,
		SubjectID: result.ID.String(),
		Provider:  engineName(s, result.Degraded),
		Success:   result.Success,
		Metadata: map[string]string{
			"format":        result.Format,
			"fields":        strconv.Itoa(len(result.ExtractedFields)),
			"confidence":    strconv.FormatFloat(result.Confidence, 'f', 4, 64),
			"quality_score": strconv.Itoa(result.Quality.Score),
			"degraded":      strconv.FormatBool(result.Degraded),
		},
	})
}

func (s *DocumentService) audit(ctx context.Context, event audit.Event) {
	if err := s.auditLogger.Log(ctx, event); err != nil {
		s.logger.Warn("failed to write audit event", "event", event.EventType, "error", err)
	}
}

// GetExtraction returns a stored extraction record.
func (s *DocumentService) GetExtraction(ctx context.Context, id uuid.UUID) (*domain.DocumentExtraction, error) {
	if s.repo == nil {
		return nil, domain.ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}
