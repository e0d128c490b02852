package service

import (
	"context"
	"testing"

	"github.com/quickdesk/helpdesk-api/internal/domain"
	"github.com/quickdesk/helpdesk-api/internal/events"
	apperrors "github.com/quickdesk/helpdesk-api/pkg/util/errorutil"
)

func TestUserAdministration(t *testing.T) {
	f := newFixture(t)
	admin := f.addUser(t, "Root", domain.RoleAdmin)
	ada := f.addUser(t, "Ada", domain.RoleUser)
	agent := f.addUser(t, "Cy", domain.RoleAgent)
	ctx := context.Background()

	_, err := f.users.ListActive(ctx, agent)
	wantCode(t, err, apperrors.CodeForbidden)

	_, err = f.users.ChangeRole(ctx, admin, ada.ID, "superuser")
	wantCode(t, err, apperrors.CodeInvalidArgument)
	_, err = f.users.ChangeRole(ctx, admin, "missing", "agent")
	wantCode(t, err, apperrors.CodeNotFound)

	updated, err := f.users.ChangeRole(ctx, admin, ada.ID, "agent")
	if err != nil {
		t.Fatalf("ChangeRole() error = %v", err)
	}
	if updated.Role != domain.RoleAgent {
		t.Fatalf("Role = %s, want agent", updated.Role)
	}

	err = f.users.Deactivate(ctx, admin, admin.ID)
	wantCode(t, err, apperrors.CodeInvalidArgument)
	if err := f.users.Deactivate(ctx, admin, agent.ID); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}

	active, err := f.users.ListActive(ctx, admin)
	if err != nil {
		t.Fatalf("ListActive() error = %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("ListActive() = %d, want 2", len(active))
	}
	for _, u := range active {
		if u.ID == agent.ID {
			t.Fatalf("deactivated user listed")
		}
	}
	if got := len(f.eventsOfType(events.EventUserDeactivated)); got != 1 {
		t.Fatalf("deactivated events = %d, want 1", got)
	}
}
