package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/quickdesk/helpdesk-api/internal/domain"
	apperrors "github.com/quickdesk/helpdesk-api/pkg/util/errorutil"
)

type stubAuthenticator map[string]*domain.User

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (*domain.User, error) {
	user, ok := s[token]
	if !ok {
		return nil, apperrors.NewUnauthorized("invalid token")
	}
	return user, nil
}

func newMiddlewareApp() *fiber.App {
	users := stubAuthenticator{
		"user-token":  {ID: "u1", Role: domain.RoleUser, Active: true},
		"admin-token": {ID: "r1", Role: domain.RoleAdmin, Active: true},
	}
	mw := NewAuthMiddleware(users, "jwt")
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(apperrors.ToDomainError(err).HTTPStatus).SendString(apperrors.ToDomainError(err).Code)
		},
	})
	app.Get("/me", mw.Handle, func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("missing identity")
		}
		return c.SendString(identity.ID)
	})
	app.Get("/admin", mw.Handle, RequireCapability(domain.CapManageUsers), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	})
	return app
}

func TestAuthMiddlewareTokenSources(t *testing.T) {
	app := newMiddlewareApp()

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer user-token") }, http.StatusOK},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "jwt", Value: "user-token"}) }, http.StatusOK},
		{"missing", func(r *http.Request) {}, http.StatusUnauthorized},
		{"malformed header", func(r *http.Request) { r.Header.Set("Authorization", "Token user-token") }, http.StatusUnauthorized},
		{"unknown token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
		{"stale cookie with valid bearer", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "jwt", Value: "expired-token"})
			r.Header.Set("Authorization", "Bearer user-token")
		}, http.StatusOK},
		{"stale cookie alone", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "jwt", Value: "expired-token"})
		}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)
			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
		})
	}
}

func TestRequireCapability(t *testing.T) {
	app := newMiddlewareApp()
	for token, want := range map[string]int{"user-token": http.StatusForbidden, "admin-token": http.StatusNoContent} {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatalf("app.Test() error = %v", err)
		}
		if resp.StatusCode != want {
			t.Fatalf("%s status = %d, want %d", token, resp.StatusCode, want)
		}
	}
}
