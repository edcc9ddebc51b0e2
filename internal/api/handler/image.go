package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/veriface/internal/domain"
)

const (
	maxImageSize = 10 * 1024 * 1024 // 10MB
)

var validImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// readImage reads a multipart image field. The declared Content-Type is
// trusted when present; otherwise the bytes are sniffed.
func readImage(c *fiber.Ctx, field string) ([]byte, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return nil, domain.ErrValidationFailed.WithMessage(field + " is required")
	}

	if file.Size == 0 || file.Size > maxImageSize {
		return nil, domain.ErrInvalidImage.WithMessage(field + ": image must be between 1 byte and 10MB")
	}

	f, err := file.Open()
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	defer func() {
		_ = f.Close()
	}()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	contentType := file.Header.Get(fiber.HeaderContentType)
	if contentType == "" || contentType == fiber.MIMEOctetStream {
		contentType = http.DetectContentType(data)
	}
	if !validImageTypes[contentType] {
		return nil, domain.ErrInvalidImage.WithError(errors.New("unsupported content type " + contentType))
	}

	return data, nil
}
