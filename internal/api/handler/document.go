package handler

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/veriface/internal/domain"
	"github.com/saturnino-fabrica-de-software/veriface/internal/idcard"
	"github.com/saturnino-fabrica-de-software/veriface/internal/service"
)

// DocumentService interface for the service
type DocumentService interface {
	ProcessIDCard(ctx context.Context, image []byte, formatName string) (*service.DocumentResult, error)
	Formats() []idcard.FormatInfo
	GetExtraction(ctx context.Context, id uuid.UUID) (*domain.DocumentExtraction, error)
}

// DocumentHandler handles ID document extraction requests
type DocumentHandler struct {
	service DocumentService
	logger  *slog.Logger
}

func NewDocumentHandler(service DocumentService, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		service: service,
		logger:  logger,
	}
}

// FormatsResponse lists the supported document formats
type FormatsResponse struct {
	Formats []idcard.FormatInfo `json:"formats"`
}

// Extract POST /v1/documents/extract - OCR an ID document and pull its fields.
// The optional format field skips detection.
func (h *DocumentHandler) Extract(c *fiber.Ctx) error {
	image, err := readImage(c, "image")
	if err != nil {
		return err
	}

	result, err := h.service.ProcessIDCard(c.UserContext(), image, strings.TrimSpace(c.FormValue("format")))
	if err != nil {
		return err
	}

	status := fiber.StatusOK
	if !result.Success {
		status = fiber.StatusUnprocessableEntity
	}
	if result.Degraded {
		h.logger.Warn("document extracted from fallback engine", "extraction_id", result.ID)
	}
	return c.Status(status).JSON(result)
}

// Formats GET /v1/documents/formats
func (h *DocumentHandler) Formats(c *fiber.Ctx) error {
	return c.JSON(FormatsResponse{Formats: h.service.Formats()})
}

// Get GET /v1/documents/extractions/:id
func (h *DocumentHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrValidationFailed.WithMessage("id must be a UUID")
	}

	extraction, err := h.service.GetExtraction(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(extraction)
}
