package service

import (
	"context"
	"testing"

	"github.com/quickdesk/helpdesk-api/internal/domain"
	apperrors "github.com/quickdesk/helpdesk-api/pkg/util/errorutil"
)

func TestHistoryRecordsTicketActivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "Ada", domain.RoleUser)
	agent := f.addUser(t, "Grace", domain.RoleAgent)
	ticket := f.addTicket(t, owner, f.addCategory(t, "Billing"), "Printer jam", "The printer jams on every page")

	if _, err := f.tickets.ChangeStatus(ctx, agent, ticket.ID, "in-progress"); err != nil {
		t.Fatalf("ChangeStatus() error = %v", err)
	}
	if _, err := f.tickets.ChangePriority(ctx, agent, ticket.ID, "high"); err != nil {
		t.Fatalf("ChangePriority() error = %v", err)
	}
	if _, err := f.tickets.Assign(ctx, agent, ticket.ID, agent.ID); err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if _, err := f.tickets.Vote(ctx, owner, ticket.ID, "up"); err != nil {
		t.Fatalf("Vote() error = %v", err)
	}
	if _, err := f.tickets.AddComment(ctx, owner, ticket.ID, CommentInput{Message: "any news?"}, nil); err != nil {
		t.Fatalf("AddComment() error = %v", err)
	}

	history, err := f.tickets.History(ctx, agent, ticket.ID)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	want := []domain.TicketChange{
		domain.TicketChangeCreated,
		domain.TicketChangeStatus,
		domain.TicketChangePriority,
		domain.TicketChangeAssignee,
		domain.TicketChangeComment,
	}
	if len(history) != len(want) {
		t.Fatalf("len(history) = %d, want %d", len(history), len(want))
	}
	for i, change := range want {
		if history[i].ChangeType != change {
			t.Fatalf("history[%d] = %s, want %s", i, history[i].ChangeType, change)
		}
	}

	status := history[1]
	if status.OldValue == nil || *status.OldValue != "open" || status.NewValue == nil || *status.NewValue != "in-progress" {
		t.Fatalf("status entry = %v -> %v, want open -> in-progress", status.OldValue, status.NewValue)
	}
	if status.Actor == nil || status.Actor.ID != agent.ID {
		t.Fatalf("status actor = %+v, want %s", status.Actor, agent.ID)
	}
	if assigned := history[3]; assigned.OldValue != nil || assigned.NewValue == nil || *assigned.NewValue != agent.ID {
		t.Fatalf("assignee entry = %v -> %v, want nil -> %s", assigned.OldValue, assigned.NewValue, agent.ID)
	}
	if created := history[0]; created.NewValue == nil || *created.NewValue != ticket.TicketNumber() {
		t.Fatalf("created entry = %v, want %s", created.NewValue, ticket.TicketNumber())
	}
}

func TestHistoryIsStaffOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "Ada", domain.RoleUser)
	admin := f.addUser(t, "Root", domain.RoleAdmin)
	ticket := f.addTicket(t, owner, f.addCategory(t, "Billing"), "Printer jam", "The printer jams on every page")

	_, err := f.tickets.History(ctx, owner, ticket.ID)
	wantCode(t, err, apperrors.CodeForbidden)

	_, err = f.tickets.History(ctx, admin, "missing-ticket")
	wantCode(t, err, apperrors.CodeNotFound)

	history, err := f.tickets.History(ctx, admin, ticket.ID)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("len(history) = %d, want 1", len(history))
	}
}
