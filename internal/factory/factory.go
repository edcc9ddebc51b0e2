// Package factory resolves the configured engine tags into concrete
// face and OCR implementations, once, at startup.
package factory

import (
	"context"
	"fmt"

	"github.com/saturnino-fabrica-de-software/veriface/internal/audit"
	"github.com/saturnino-fabrica-de-software/veriface/internal/config"
	"github.com/saturnino-fabrica-de-software/veriface/internal/ocr"
	ocrmock "github.com/saturnino-fabrica-de-software/veriface/internal/ocr/mock"
	ocrrekognition "github.com/saturnino-fabrica-de-software/veriface/internal/ocr/rekognition"
	"github.com/saturnino-fabrica-de-software/veriface/internal/provider"
	"github.com/saturnino-fabrica-de-software/veriface/internal/provider/deepface"
	"github.com/saturnino-fabrica-de-software/veriface/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/veriface/internal/provider/rekognition"
)

// FaceProviderType defines supported face recognition provider types
type FaceProviderType string

const (
	// FaceProviderMock is deterministic and offline (dev/test)
	FaceProviderMock FaceProviderType = "mock"
	// FaceProviderDeepFace is a self-hosted DeepFace API
	FaceProviderDeepFace FaceProviderType = "deepface"
	// FaceProviderRekognition is AWS Rekognition (cloud, for prod)
	FaceProviderRekognition FaceProviderType = "rekognition"
)

// OCRProviderType defines supported text recognition engines
type OCRProviderType string

const (
	OCRProviderMock        OCRProviderType = "mock"
	OCRProviderRekognition OCRProviderType = "rekognition"
)

// NewFaceProvider creates a FaceProvider instance based on configuration
//
// Environment variables:
//   - FACE_PROVIDER: "mock", "deepface" or "rekognition" (default: "mock")
//   - DEEPFACE_URL / DEEPFACE_TIMEOUT: DeepFace API settings
//   - AWS_REGION: AWS region for Rekognition (default: "us-east-1")
//   - AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY: via AWS SDK credential chain
func NewFaceProvider(ctx context.Context, cfg *config.Config, auditLogger audit.Logger) (provider.FaceProvider, error) {
	switch FaceProviderType(cfg.FaceProvider) {
	case FaceProviderMock, "":
		return mock.New(), nil

	case FaceProviderDeepFace:
		return createDeepFaceProvider(cfg), nil

	case FaceProviderRekognition:
		rekogConfig := rekognition.DefaultConfig()
		rekogConfig.Region = cfg.AWSRegion

		prov, err := rekognition.NewProvider(ctx, rekogConfig, rekognition.WithAuditLogger(auditLogger))
		if err != nil {
			return nil, fmt.Errorf("create rekognition provider: %w", err)
		}
		return prov, nil

	default:
		return nil, fmt.Errorf("unknown face provider type: %s (supported: %s, %s, %s)",
			cfg.FaceProvider, FaceProviderMock, FaceProviderDeepFace, FaceProviderRekognition)
	}
}

// NewOCREngine creates the shared text recognition engine.
//
// Environment variables:
//   - OCR_PROVIDER: "mock" or "rekognition" (default: "mock")
func NewOCREngine(ctx context.Context, cfg *config.Config) (ocr.Engine, error) {
	switch OCRProviderType(cfg.OCRProvider) {
	case OCRProviderMock, "":
		return ocrmock.New(), nil

	case OCRProviderRekognition:
		engine, err := ocrrekognition.New(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, fmt.Errorf("create rekognition ocr engine: %w", err)
		}
		return engine, nil

	default:
		return nil, fmt.Errorf("unknown ocr provider type: %s (supported: %s, %s)",
			cfg.OCRProvider, OCRProviderMock, OCRProviderRekognition)
	}
}

// createDeepFaceProvider creates a DeepFace provider instance
func createDeepFaceProvider(cfg *config.Config) provider.FaceProvider {
	deepfaceConfig := deepface.DefaultConfig()

	if cfg.DeepFaceURL != "" {
		deepfaceConfig.BaseURL = cfg.DeepFaceURL
	}
	if cfg.DeepFaceTimeout > 0 {
		deepfaceConfig.Timeout = cfg.DeepFaceTimeout
	}

	return deepface.NewProvider(deepfaceConfig)
}
