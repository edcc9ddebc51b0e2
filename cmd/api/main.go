package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saturnino-fabrica-de-software/veriface/internal/api"
	"github.com/saturnino-fabrica-de-software/veriface/internal/audit"
	"github.com/saturnino-fabrica-de-software/veriface/internal/cache"
	"github.com/saturnino-fabrica-de-software/veriface/internal/capture"
	"github.com/saturnino-fabrica-de-software/veriface/internal/config"
	"github.com/saturnino-fabrica-de-software/veriface/internal/database"
	"github.com/saturnino-fabrica-de-software/veriface/internal/factory"
	"github.com/saturnino-fabrica-de-software/veriface/internal/idcard"
	"github.com/saturnino-fabrica-de-software/veriface/internal/repository"
	"github.com/saturnino-fabrica-de-software/veriface/internal/service"
	"github.com/saturnino-fabrica-de-software/veriface/internal/webhook"
	"github.com/saturnino-fabrica-de-software/veriface/internal/ws"
)

const cacheJanitorInterval = 5 * time.Minute

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting Veriface API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("face_provider", cfg.FaceProvider),
		slog.String("ocr_provider", cfg.OCRProvider),
		slog.Bool("persistence", cfg.PersistenceEnabled()),
		slog.Bool("auth", cfg.APIKeyHash != ""),
	)

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var auditLogger audit.Logger = audit.NewSlogLogger(logger)
	if cfg.WebhookEnabled() {
		events := make([]audit.EventType, 0, len(cfg.WebhookEvents))
		for _, e := range cfg.WebhookEvents {
			events = append(events, audit.EventType(e))
		}
		notifier := webhook.NewNotifier(webhook.Config{
			URL:         cfg.WebhookURL,
			Secret:      cfg.WebhookSecret,
			Events:      events,
			MaxAttempts: cfg.WebhookMaxAttempts,
			Timeout:     cfg.WebhookTimeout,
		}, logger)
		go notifier.Run(ctx)
		auditLogger = audit.NewMultiLogger(auditLogger, notifier)
	}

	faceProvider, err := factory.NewFaceProvider(ctx, cfg, auditLogger)
	if err != nil {
		return fmt.Errorf("failed to create face provider: %w", err)
	}

	// One OCR engine for the whole process
	engine, err := factory.NewOCREngine(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create ocr engine: %w", err)
	}
	defer func() {
		if err := engine.Close(); err != nil {
			logger.Warn("ocr engine close failed", slog.Any("error", err))
		}
	}()

	deps := &api.Dependencies{
		Hub: ws.NewHub(),
		Capture: ws.Options{
			Capture: capture.Config{
				SamplingInterval:   cfg.SamplingInterval,
				CountdownInterval:  time.Second,
				RequiredDetections: cfg.RequiredDetections,
				CountdownSeconds:   cfg.CountdownSeconds,
			},
			Logger:      logger,
			AuditLogger: auditLogger,
		},
	}

	documentOpts := []service.DocumentOption{
		service.WithRecognitionTimeout(cfg.RecognitionTimeout),
		service.WithAuditLogger(auditLogger),
	}
	var verificationRepo service.VerificationRepositoryInterface

	if cfg.PersistenceEnabled() {
		pool, err := database.NewPgxPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		ocrCache := cache.NewPGCache(pool)
		go ocrCache.RunJanitor(ctx, cacheJanitorInterval, logger)

		verificationRepo = repository.NewVerificationRepository(pool)
		documentOpts = append(documentOpts,
			service.WithExtractionRepository(repository.NewExtractionRepository(pool)),
			service.WithCache(ocrCache, cfg.OCRCacheTTL),
		)
		deps.DB = pool
	}

	deps.Verification = service.NewVerificationService(faceProvider, verificationRepo, auditLogger, logger).
		WithThreshold(cfg.SimilarityThreshold).
		WithQualityThreshold(cfg.QualityThreshold)

	extractor := idcard.NewExtractor(idcard.WithConfidenceThreshold(cfg.OCRConfidenceThreshold))
	deps.Documents = service.NewDocumentService(engine, extractor, logger, documentOpts...)

	// Setup router
	router := api.NewRouter(logger, api.Security{
		APIKeyHash:         cfg.APIKeyHash,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, deps)
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server...")
	if err := router.Shutdown(); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	logger.Info("server stopped")
	return nil
}
