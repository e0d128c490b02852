package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/quickdesk/helpdesk-api/internal/domain"
	apperrors "github.com/quickdesk/helpdesk-api/pkg/util/errorutil"
)

// RequireIdentity ensures the caller is authenticated.
func RequireIdentity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := IdentityFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// RequireCapability ensures the caller's role grants capability.
func RequireCapability(capability domain.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !identity.Can(capability) {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}
