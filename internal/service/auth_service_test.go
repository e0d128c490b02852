package service

import (
	"context"
	"testing"

	"github.com/quickdesk/helpdesk-api/internal/domain"
	apperrors "github.com/quickdesk/helpdesk-api/pkg/util/errorutil"
)

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, err := f.auth.Register(ctx, RegisterInput{Name: "Ada", Email: " Ada@Example.com ", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if session.User.Role != domain.RoleUser {
		t.Fatalf("Role = %s, want user", session.User.Role)
	}
	if session.User.Email != "ada@example.com" {
		t.Fatalf("Email = %q, want normalized", session.User.Email)
	}
	if session.Token == "" {
		t.Fatalf("Register() returned no token")
	}

	_, err = f.auth.Register(ctx, RegisterInput{Name: "Ada Two", Email: "ADA@example.com", Password: "secret1"})
	wantCode(t, err, apperrors.CodeConflict)

	login, err := f.auth.Login(ctx, "ada@example.com", "secret1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	user, err := f.auth.Authenticate(ctx, login.Token)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if user.ID != session.User.ID {
		t.Fatalf("Authenticate() = %s, want %s", user.ID, session.User.ID)
	}

	_, err = f.auth.Login(ctx, "ada@example.com", "wrong-pass")
	wantCode(t, err, apperrors.CodeInvalidCredentials)
	_, err = f.auth.Login(ctx, "nobody@example.com", "secret1")
	wantCode(t, err, apperrors.CodeInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	inputs := []RegisterInput{
		{Name: "A", Email: "a@example.com", Password: "secret1"},
		{Name: "Ada", Email: "not-an-email", Password: "secret1"},
		{Name: "Ada", Email: "ada@example.com", Password: "12345"},
	}
	for _, input := range inputs {
		_, err := f.auth.Register(context.Background(), input)
		wantCode(t, err, apperrors.CodeValidation)
	}
}

func TestDeactivatedUserLosesAccess(t *testing.T) {
	f := newFixture(t)
	admin := f.addUser(t, "Root", domain.RoleAdmin)
	ctx := context.Background()

	session, err := f.auth.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := f.users.Deactivate(ctx, admin, session.User.ID); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}

	_, err = f.auth.Authenticate(ctx, session.Token)
	wantCode(t, err, apperrors.CodeUnauthorized)
	_, err = f.auth.Login(ctx, "ada@example.com", "secret1")
	wantCode(t, err, apperrors.CodeInvalidCredentials)
	_, err = f.auth.Authenticate(ctx, "garbage")
	wantCode(t, err, apperrors.CodeUnauthorized)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, err := f.auth.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	identity := domain.IdentityOf(session.User)

	err = f.auth.ChangePassword(ctx, identity, "wrong", "secret2")
	wantCode(t, err, apperrors.CodeInvalidCredentials)

	if err := f.auth.ChangePassword(ctx, identity, "secret1", "secret2"); err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}
	if _, err := f.auth.Login(ctx, "ada@example.com", "secret2"); err != nil {
		t.Fatalf("Login(new password) error = %v", err)
	}
	_, err = f.auth.Login(ctx, "ada@example.com", "secret1")
	wantCode(t, err, apperrors.CodeInvalidCredentials)
}
