package domain

import (
	"time"

	"github.com/google/uuid"
)

// FaceComparison é o resultado da comparação entre a face do documento e a selfie
type FaceComparison struct {
	Similarity float64           `json:"similarity"`
	Confidence float64           `json:"confidence"`
	IsMatch    bool              `json:"is_match"`
	Threshold  float64           `json:"threshold"`
	Details    ComparisonDetails `json:"details"`
}

type ComparisonDetails struct {
	QualityScore            float64 `json:"quality_score"`
	FaceDetectionConfidence float64 `json:"face_detection_confidence"`
	ProcessingTimeMs        int64   `json:"processing_time_ms"`
}

// Verification representa um registro de verificação (audit)
type Verification struct {
	ID           uuid.UUID `json:"id"`
	Success      bool      `json:"success"`
	Similarity   float64   `json:"similarity"`
	Confidence   float64   `json:"confidence"`
	IsMatch      bool      `json:"is_match"`
	Threshold    float64   `json:"threshold"`
	ErrorCode    string    `json:"error_code,omitempty"`
	ProcessingMs int64     `json:"processing_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// DocumentExtraction registra uma extração de documento processada
type DocumentExtraction struct {
	ID           uuid.UUID         `json:"id"`
	Format       string            `json:"format"`
	Fields       map[string]string `json:"fields"`
	Confidence   float64           `json:"confidence"`
	QualityScore int               `json:"quality_score"`
	Degraded     bool              `json:"degraded"`
	CreatedAt    time.Time         `json:"created_at"`
}
