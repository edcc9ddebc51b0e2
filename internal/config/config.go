package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Database (optional: persistence and OCR cache are disabled when empty)
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// Face provider
	FaceProvider    string        `envconfig:"FACE_PROVIDER" default:"mock"`
	DeepFaceURL     string        `envconfig:"DEEPFACE_URL" default:"http://localhost:5000"`
	DeepFaceTimeout time.Duration `envconfig:"DEEPFACE_TIMEOUT" default:"30s"`
	AWSRegion       string        `envconfig:"AWS_REGION" default:"us-east-1"`

	// OCR provider
	OCRProvider        string        `envconfig:"OCR_PROVIDER" default:"mock"`
	RecognitionTimeout time.Duration `envconfig:"RECOGNITION_TIMEOUT" default:"30s"`
	OCRCacheTTL        time.Duration `envconfig:"OCR_CACHE_TTL" default:"10m"`

	// Thresholds
	SimilarityThreshold    float64 `envconfig:"SIMILARITY_THRESHOLD" default:"0.8"`
	QualityThreshold       float64 `envconfig:"QUALITY_THRESHOLD" default:"0.7"`
	OCRConfidenceThreshold float64 `envconfig:"OCR_CONFIDENCE_THRESHOLD" default:"0.7"`

	// Auto-capture
	SamplingInterval   time.Duration `envconfig:"SAMPLING_INTERVAL" default:"300ms"`
	RequiredDetections int           `envconfig:"REQUIRED_DETECTIONS" default:"3"`
	CountdownSeconds   int           `envconfig:"COUNTDOWN_SECONDS" default:"3"`

	// Security
	APIKeyHash         string `envconfig:"API_KEY_HASH"`
	RateLimitPerMinute int    `envconfig:"RATE_LIMIT_PER_MINUTE" default:"60"`

	// Result notifications (disabled when WEBHOOK_URL is empty)
	WebhookURL         string        `envconfig:"WEBHOOK_URL"`
	WebhookSecret      string        `envconfig:"WEBHOOK_SECRET"`
	WebhookEvents      []string      `envconfig:"WEBHOOK_EVENTS" default:"VERIFICATION_COMPLETED,DOCUMENT_EXTRACTED"`
	WebhookMaxAttempts int           `envconfig:"WEBHOOK_MAX_ATTEMPTS" default:"5"`
	WebhookTimeout     time.Duration `envconfig:"WEBHOOK_TIMEOUT" default:"10s"`
}

var (
	validFaceProviders = map[string]bool{"mock": true, "deepface": true, "rekognition": true}
	validOCRProviders  = map[string]bool{"mock": true, "rekognition": true}
)

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if !validFaceProviders[c.FaceProvider] {
		return fmt.Errorf("invalid FACE_PROVIDER %q", c.FaceProvider)
	}
	if !validOCRProviders[c.OCRProvider] {
		return fmt.Errorf("invalid OCR_PROVIDER %q", c.OCRProvider)
	}
	for name, v := range map[string]float64{
		"SIMILARITY_THRESHOLD":     c.SimilarityThreshold,
		"QUALITY_THRESHOLD":        c.QualityThreshold,
		"OCR_CONFIDENCE_THRESHOLD": c.OCRConfidenceThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %v", name, v)
		}
	}
	if c.SamplingInterval <= 0 {
		return fmt.Errorf("SAMPLING_INTERVAL must be positive")
	}
	if c.RequiredDetections < 1 {
		return fmt.Errorf("REQUIRED_DETECTIONS must be at least 1")
	}
	if c.CountdownSeconds < 1 {
		return fmt.Errorf("COUNTDOWN_SECONDS must be at least 1")
	}
	if c.RecognitionTimeout <= 0 {
		return fmt.Errorf("RECOGNITION_TIMEOUT must be positive")
	}
	if c.WebhookURL != "" {
		u, err := url.Parse(c.WebhookURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid WEBHOOK_URL %q", c.WebhookURL)
		}
		if c.IsProduction() && c.WebhookSecret == "" {
			return fmt.Errorf("WEBHOOK_SECRET is required in production")
		}
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) PersistenceEnabled() bool {
	return c.DatabaseURL != ""
}

func (c *Config) WebhookEnabled() bool {
	return c.WebhookURL != ""
}
