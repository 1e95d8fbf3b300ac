package auth

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/config"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

const apiKeyHeader = "x-api-key"

// APIKeyMiddleware gates every route except the health probes. Modes:
// disabled skips the check, warn allows requests through with a logged warning
// when no key is configured, enforce rejects anything without a matching key.
type APIKeyMiddleware struct {
	cfg    config.AuthConfig
	logger *zap.Logger
}

// NewAPIKeyMiddleware constructs middleware.
func NewAPIKeyMiddleware(cfg config.AuthConfig, logger *zap.Logger) *APIKeyMiddleware {
	return &APIKeyMiddleware{cfg: cfg, logger: logger}
}

// Handle enforces the api-key gate according to the configured mode.
func (m *APIKeyMiddleware) Handle(c *fiber.Ctx) error {
	switch m.cfg.Mode {
	case config.AuthModeDisabled:
		return c.Next()
	case config.AuthModeWarn:
		if m.cfg.APIKey == "" {
			m.logger.Warn("api key auth enabled but no key configured; allowing request",
				zap.String("path", c.Path()))
			return c.Next()
		}
	case config.AuthModeEnforce:
		if m.cfg.APIKey == "" {
			m.logger.Error("api key auth enforced but no key configured; rejecting request",
				zap.String("path", c.Path()))
			return apperrors.NewUnauthorized("api key not configured")
		}
	}

	supplied := c.Get(apiKeyHeader)
	if supplied == "" {
		return apperrors.NewUnauthorized("missing api key")
	}
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(m.cfg.APIKey)) != 1 {
		return apperrors.NewUnauthorized("invalid api key")
	}
	return c.Next()
}
