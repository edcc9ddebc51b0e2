package handler

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/veriface/internal/domain"
	"github.com/saturnino-fabrica-de-software/veriface/internal/service"
)

// VerificationService interface for the service
type VerificationService interface {
	ProcessVerification(ctx context.Context, idImage, liveImage []byte) *service.VerificationResult
	CheckImageQuality(ctx context.Context, image []byte) *service.ImageQuality
	GetVerification(ctx context.Context, id uuid.UUID) (*domain.Verification, error)
}

// VerificationHandler handles face verification requests
type VerificationHandler struct {
	service VerificationService
	logger  *slog.Logger
}

func NewVerificationHandler(service VerificationService, logger *slog.Logger) *VerificationHandler {
	return &VerificationHandler{
		service: service,
		logger:  logger,
	}
}

// Verify POST /v1/verify - compare the face on an ID document with a live photo.
// Pipeline failures are reported in the body with success=false and status 422.
func (h *VerificationHandler) Verify(c *fiber.Ctx) error {
	idImage, err := readImage(c, "id_image")
	if err != nil {
		return err
	}
	liveImage, err := readImage(c, "live_image")
	if err != nil {
		return err
	}

	result := h.service.ProcessVerification(c.UserContext(), idImage, liveImage)

	status := fiber.StatusOK
	if !result.Success {
		status = fiber.StatusUnprocessableEntity
		if result.Error != nil {
			h.logger.Info("verification failed",
				"verification_id", result.ID,
				"code", result.Error.Code,
			)
		}
	}
	return c.Status(status).JSON(result)
}

// Quality POST /v1/quality - face-based image quality probe
func (h *VerificationHandler) Quality(c *fiber.Ctx) error {
	image, err := readImage(c, "image")
	if err != nil {
		return err
	}

	return c.JSON(h.service.CheckImageQuality(c.UserContext(), image))
}

// Get GET /v1/verifications/:id
func (h *VerificationHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrValidationFailed.WithMessage("id must be a UUID")
	}

	verification, err := h.service.GetVerification(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(verification)
}
