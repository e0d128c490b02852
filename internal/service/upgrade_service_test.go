package service

import (
	"context"
	"testing"

	"github.com/quickdesk/helpdesk-api/internal/domain"
	"github.com/quickdesk/helpdesk-api/internal/events"
	apperrors "github.com/quickdesk/helpdesk-api/pkg/util/errorutil"
)

func TestUpgradeCreateValidatesPath(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, "Ada", domain.RoleUser)
	agent := f.addUser(t, "Cy", domain.RoleAgent)
	admin := f.addUser(t, "Root", domain.RoleAdmin)
	ctx := context.Background()

	tests := []struct {
		name     string
		identity domain.Identity
		input    UpgradeRequestInput
		code     string
	}{
		{"user skips to admin", user, UpgradeRequestInput{RequestedRole: "admin", Reason: "need it"}, apperrors.CodeInvalidArgument},
		{"agent to agent", agent, UpgradeRequestInput{RequestedRole: "agent", Reason: "need it"}, apperrors.CodeInvalidArgument},
		{"admin upgrade", admin, UpgradeRequestInput{RequestedRole: "admin", Reason: "need it"}, apperrors.CodeInvalidArgument},
		{"wrong current role", user, UpgradeRequestInput{CurrentRole: "agent", RequestedRole: "agent", Reason: "need it"}, apperrors.CodeInvalidArgument},
		{"missing reason", user, UpgradeRequestInput{RequestedRole: "agent", Reason: "   "}, apperrors.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.upgrades.Create(ctx, tt.identity, tt.input)
			wantCode(t, err, tt.code)
		})
	}

	view, err := f.upgrades.Create(ctx, agent, UpgradeRequestInput{CurrentRole: "agent", RequestedRole: "admin", Reason: "team lead"})
	if err != nil {
		t.Fatalf("Create(agent->admin) error = %v", err)
	}
	if view.Status != domain.UpgradeStatusPending || view.UserName != "Cy" {
		t.Fatalf("request = %+v, want pending for Cy", view.UpgradeRequest)
	}
}

func TestUpgradeSinglePendingRequest(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, "Ada", domain.RoleUser)
	admin := f.addUser(t, "Root", domain.RoleAdmin)
	ctx := context.Background()

	first, err := f.upgrades.Create(ctx, user, UpgradeRequestInput{RequestedRole: "agent", Reason: "I help a lot"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	_, err = f.upgrades.Create(ctx, user, UpgradeRequestInput{RequestedRole: "agent", Reason: "again"})
	wantCode(t, err, apperrors.CodeConflict)

	if _, err := f.upgrades.Review(ctx, admin, first.ID, UpgradeReviewInput{Status: "rejected", AdminNotes: "not yet"}); err != nil {
		t.Fatalf("Review(rejected) error = %v", err)
	}
	if _, err := f.upgrades.Create(ctx, user, UpgradeRequestInput{RequestedRole: "agent", Reason: "second try"}); err != nil {
		t.Fatalf("Create() after rejection error = %v", err)
	}

	mine, err := f.upgrades.Mine(ctx, user)
	if err != nil {
		t.Fatalf("Mine() error = %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("Mine() = %d requests, want 2", len(mine))
	}
	if mine[0].Status != domain.UpgradeStatusPending {
		t.Fatalf("newest request status = %s, want pending", mine[0].Status)
	}
	if mine[1].Reviewer == nil || mine[1].Reviewer.Name != "Root" {
		t.Fatalf("Reviewer = %+v, want Root", mine[1].Reviewer)
	}
}

func TestUpgradeApprovalGrantsRole(t *testing.T) {
	f := newFixture(t)
	ada := f.addUser(t, "Ada", domain.RoleUser)
	bob := f.addUser(t, "Bob", domain.RoleUser)
	admin := f.addUser(t, "Root", domain.RoleAdmin)
	categoryID := f.addCategory(t, "Billing")
	ctx := context.Background()

	f.addTicket(t, ada, categoryID, "Ada ticket", "Some description text")
	f.addTicket(t, bob, categoryID, "Bob ticket", "Some description text")

	request, err := f.upgrades.Create(ctx, ada, UpgradeRequestInput{CurrentRole: "user", RequestedRole: "agent", Reason: "I help a lot"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err = f.upgrades.Review(ctx, ada, request.ID, UpgradeReviewInput{Status: "approved"})
	wantCode(t, err, apperrors.CodeForbidden)
	_, err = f.upgrades.Review(ctx, admin, request.ID, UpgradeReviewInput{Status: "pending"})
	wantCode(t, err, apperrors.CodeInvalidArgument)

	reviewed, err := f.upgrades.Review(ctx, admin, request.ID, UpgradeReviewInput{Status: "approved", AdminNotes: " welcome "})
	if err != nil {
		t.Fatalf("Review(approved) error = %v", err)
	}
	if reviewed.Status != domain.UpgradeStatusApproved || reviewed.ReviewedAt == nil || reviewed.AdminNotes != "welcome" {
		t.Fatalf("reviewed = %+v", reviewed.UpgradeRequest)
	}

	user, err := f.store.Users().GetByID(ctx, ada.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if user.Role != domain.RoleAgent {
		t.Fatalf("Role = %s, want agent", user.Role)
	}

	promoted := domain.IdentityOf(user)
	page, err := f.tickets.List(ctx, promoted, ListTicketsInput{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("promoted agent sees %d tickets, want 2", page.Total)
	}

	_, err = f.upgrades.Review(ctx, admin, request.ID, UpgradeReviewInput{Status: "rejected"})
	wantCode(t, err, apperrors.CodeConflict)

	if got := len(f.eventsOfType(events.EventUserRoleChanged)); got != 1 {
		t.Fatalf("role_changed events = %d, want 1", got)
	}
}

func TestUpgradeApprovalAfterRoleChangeConflicts(t *testing.T) {
	f := newFixture(t)
	ada := f.addUser(t, "Ada", domain.RoleUser)
	admin := f.addUser(t, "Root", domain.RoleAdmin)
	ctx := context.Background()

	request, err := f.upgrades.Create(ctx, ada, UpgradeRequestInput{RequestedRole: "agent", Reason: "I help a lot"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := f.users.ChangeRole(ctx, admin, ada.ID, "admin"); err != nil {
		t.Fatalf("ChangeRole() error = %v", err)
	}

	_, err = f.upgrades.Review(ctx, admin, request.ID, UpgradeReviewInput{Status: "approved"})
	wantCode(t, err, apperrors.CodeConflict)

	all, err := f.upgrades.List(ctx, admin)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 1 || all[0].Status != domain.UpgradeStatusPending {
		t.Fatalf("request after failed approval = %+v, want still pending", all)
	}
	user, err := f.store.Users().GetByID(ctx, ada.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if user.Role != domain.RoleAdmin {
		t.Fatalf("Role = %s, want admin untouched", user.Role)
	}
}
