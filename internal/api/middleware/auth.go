package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/veriface/internal/domain"
)

// LocalAPIKeyHash is the key holding the authenticated key's hash
const LocalAPIKeyHash = "api_key_hash"

// APIKeyAuth accepts bearer keys whose SHA-256 matches expectedHash.
// An empty expectedHash disables authentication.
func APIKeyAuth(expectedHash string) fiber.Handler {
	expectedHash = strings.TrimSpace(expectedHash)

	return func(c *fiber.Ctx) error {
		if expectedHash == "" {
			return c.Next()
		}

		apiKey := extractBearerToken(c)
		if apiKey == "" {
			return domain.ErrUnauthorized
		}

		// Não revela se a chave existe ou não
		if !domain.MatchAPIKey(apiKey, expectedHash) {
			return domain.ErrUnauthorized
		}

		c.Locals(LocalAPIKeyHash, domain.HashAPIKey(apiKey))
		return c.Next()
	}
}

// extractBearerToken extracts token from Authorization header
func extractBearerToken(c *fiber.Ctx) string {
	auth := c.Get(fiber.HeaderAuthorization)
	if auth == "" {
		return ""
	}

	// Expected format: "Bearer <token>"
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
