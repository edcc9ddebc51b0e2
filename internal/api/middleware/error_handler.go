package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/veriface/internal/domain"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		requestID := c.GetRespHeader(fiber.HeaderXRequestID)

		// Check if it's a Fiber error
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(ErrorResponse{Error: ErrorBody{
				Code:      "HTTP_ERROR",
				Message:   fiberErr.Message,
				RequestID: requestID,
			}})
		}

		// Check if it's our AppError
		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			if appErr.StatusCode >= 500 {
				logger.Error("internal error",
					slog.String("code", appErr.Code),
					slog.String("message", appErr.Message),
					slog.Any("error", appErr.Err),
					slog.String("request_id", requestID),
				)
			}

			status := appErr.StatusCode
			if status == 0 {
				status = fiber.StatusInternalServerError
			}
			return c.Status(status).JSON(ErrorResponse{Error: ErrorBody{
				Code:      appErr.Code,
				Message:   appErr.Message,
				RequestID: requestID,
			}})
		}

		// Unknown error - log and return generic message
		logger.Error("unhandled error",
			slog.Any("error", err),
			slog.String("path", c.Path()),
			slog.String("request_id", requestID),
		)

		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: ErrorBody{
			Code:      domain.ErrInternal.Code,
			Message:   domain.ErrInternal.Message,
			RequestID: requestID,
		}})
	}
}
