package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/quickdesk/helpdesk-api/internal/domain"
	apperrors "github.com/quickdesk/helpdesk-api/pkg/util/errorutil"
)

const (
	identityKey = "auth_identity"
	userKey     = "auth_user"
)

// Authenticator resolves a session token to its current, active user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// AuthMiddleware reads the session token from the cookie or bearer header and
// loads the caller's identity. The stored role is used, never the token claim,
// so role changes take effect immediately.
type AuthMiddleware struct {
	authenticator Authenticator
	cookieName    string
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(authenticator Authenticator, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{authenticator: authenticator, cookieName: cookieName}
}

// Handle enforces authentication for protected routes. The session cookie is
// tried first; a cookie that fails to authenticate falls back to the bearer header.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	tokens, err := m.tokensFrom(c)
	if err != nil {
		return err
	}
	var user *domain.User
	for _, token := range tokens {
		user, err = m.authenticator.Authenticate(c.UserContext(), token)
		if err == nil {
			break
		}
	}
	if err != nil {
		return err
	}

	c.Locals(identityKey, domain.IdentityOf(user))
	c.Locals(userKey, user)
	c.Locals("user_id", user.ID)
	return c.Next()
}

// tokensFrom returns the candidate tokens in the order they are tried.
func (m *AuthMiddleware) tokensFrom(c *fiber.Ctx) ([]string, error) {
	var tokens []string
	if m.cookieName != "" {
		if token := c.Cookies(m.cookieName); token != "" {
			tokens = append(tokens, token)
		}
	}
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		if len(tokens) == 0 {
			return nil, apperrors.NewUnauthorized("authentication required")
		}
		return tokens, nil
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		if len(tokens) == 0 {
			return nil, apperrors.NewUnauthorized("invalid authorization header")
		}
		return tokens, nil
	}
	return append(tokens, strings.TrimSpace(parts[1])), nil
}

// IdentityFromContext retrieves the authenticated identity.
func IdentityFromContext(c *fiber.Ctx) (domain.Identity, bool) {
	identity, ok := c.Locals(identityKey).(domain.Identity)
	return identity, ok
}

// UserFromContext retrieves the authenticated user record.
func UserFromContext(c *fiber.Ctx) (*domain.User, bool) {
	user, ok := c.Locals(userKey).(*domain.User)
	return user, ok && user != nil
}
