package service

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/quickdesk/helpdesk-api/internal/domain"
	"github.com/quickdesk/helpdesk-api/internal/events"
	apperrors "github.com/quickdesk/helpdesk-api/pkg/util/errorutil"
)

func TestCreateTicketDefaults(t *testing.T) {
	f := newFixture(t)
	owner := f.addUser(t, "Ada", domain.RoleUser)
	categoryID := f.addCategory(t, "Billing")

	view, err := f.tickets.Create(context.Background(), owner, CreateTicketInput{
		Subject:     "  Printer jam  ",
		Description: "The printer jams on every page",
		CategoryID:  categoryID,
		Tags:        []string{"Hardware", "hardware", " "},
	}, nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if view.Status != domain.TicketStatusOpen {
		t.Fatalf("Status = %s, want open", view.Status)
	}
	if view.Priority != domain.TicketPriorityMedium {
		t.Fatalf("Priority = %s, want medium", view.Priority)
	}
	if view.Subject != "Printer jam" {
		t.Fatalf("Subject = %q, want trimmed", view.Subject)
	}
	if view.TicketNumber() != "QD-000001" {
		t.Fatalf("TicketNumber() = %s, want QD-000001", view.TicketNumber())
	}
	if view.ResolvedAt != nil || view.ClosedAt != nil {
		t.Fatalf("new ticket carries resolution stamps")
	}
	if len(view.Tags) != 1 || view.Tags[0] != "hardware" {
		t.Fatalf("Tags = %v, want [hardware]", view.Tags)
	}
	if view.Category == nil || view.Category.Name != "Billing" {
		t.Fatalf("Category = %+v, want Billing", view.Category)
	}
	if view.Creator == nil || view.Creator.ID != owner.ID {
		t.Fatalf("Creator = %+v, want %s", view.Creator, owner.ID)
	}
	if got := len(f.eventsOfType(events.EventTicketCreated)); got != 1 {
		t.Fatalf("ticket.created events = %d, want 1", got)
	}
}

func TestCreateTicketValidation(t *testing.T) {
	f := newFixture(t)
	owner := f.addUser(t, "Ada", domain.RoleUser)
	categoryID := f.addCategory(t, "Billing")
	inactiveID := f.addCategory(t, "Legacy")
	if err := f.store.Categories().SetActive(context.Background(), inactiveID, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}

	tooMany := make([]AttachmentUpload, MaxTicketAttachments+1)
	for i := range tooMany {
		tooMany[i] = textUpload("note.txt", "x")
	}

	tests := []struct {
		name    string
		input   CreateTicketInput
		uploads []AttachmentUpload
	}{
		{"short subject", CreateTicketInput{Subject: "Hey", Description: "long enough description", CategoryID: categoryID}, nil},
		{"short description", CreateTicketInput{Subject: "Printer jam", Description: "short", CategoryID: categoryID}, nil},
		{"missing category", CreateTicketInput{Subject: "Printer jam", Description: "long enough description"}, nil},
		{"unknown category", CreateTicketInput{Subject: "Printer jam", Description: "long enough description", CategoryID: "nope"}, nil},
		{"inactive category", CreateTicketInput{Subject: "Printer jam", Description: "long enough description", CategoryID: inactiveID}, nil},
		{"bad priority", CreateTicketInput{Subject: "Printer jam", Description: "long enough description", CategoryID: categoryID, Priority: "critical"}, nil},
		{"too many attachments", CreateTicketInput{Subject: "Printer jam", Description: "long enough description", CategoryID: categoryID}, tooMany},
		{"bad extension", CreateTicketInput{Subject: "Printer jam", Description: "long enough description", CategoryID: categoryID}, []AttachmentUpload{textUpload("run.exe", "x")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.tickets.Create(context.Background(), owner, tt.input, tt.uploads)
			wantCode(t, err, apperrors.CodeValidation)
		})
	}

	page, err := f.tickets.List(context.Background(), owner, ListTicketsInput{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if page.Total != 0 {
		t.Fatalf("Total = %d after rejected creates, want 0", page.Total)
	}
}

func TestTicketVisibility(t *testing.T) {
	f := newFixture(t)
	owner := f.addUser(t, "Ada", domain.RoleUser)
	other := f.addUser(t, "Bob", domain.RoleUser)
	agent := f.addUser(t, "Cy", domain.RoleAgent)
	ticket := f.addTicket(t, owner, f.addCategory(t, "Billing"), "Printer jam", "The printer jams on every page")
	ctx := context.Background()

	if _, err := f.tickets.Get(ctx, owner, ticket.ID); err != nil {
		t.Fatalf("owner Get() error = %v", err)
	}
	if _, err := f.tickets.Get(ctx, agent, ticket.ID); err != nil {
		t.Fatalf("agent Get() error = %v", err)
	}
	_, err := f.tickets.Get(ctx, other, ticket.ID)
	wantCode(t, err, apperrors.CodeForbidden)

	_, err = f.tickets.Get(ctx, owner, "missing")
	wantCode(t, err, apperrors.CodeNotFound)

	_, err = f.tickets.AddComment(ctx, other, ticket.ID, CommentInput{Message: "me too"}, nil)
	wantCode(t, err, apperrors.CodeForbidden)
}

func TestInternalCommentsHiddenFromUsers(t *testing.T) {
	f := newFixture(t)
	owner := f.addUser(t, "Ada", domain.RoleUser)
	agent := f.addUser(t, "Cy", domain.RoleAgent)
	ticket := f.addTicket(t, owner, f.addCategory(t, "Billing"), "Printer jam", "The printer jams on every page")
	ctx := context.Background()

	if _, err := f.tickets.AddComment(ctx, agent, ticket.ID, CommentInput{Message: "checking the driver", IsInternal: true}, nil); err != nil {
		t.Fatalf("internal AddComment() error = %v", err)
	}
	if _, err := f.tickets.AddComment(ctx, agent, ticket.ID, CommentInput{Message: "please restart it"}, nil); err != nil {
		t.Fatalf("public AddComment() error = %v", err)
	}
	own, err := f.tickets.AddComment(ctx, owner, ticket.ID, CommentInput{Message: "secret note", IsInternal: true}, nil)
	if err != nil {
		t.Fatalf("owner AddComment() error = %v", err)
	}
	if own.IsInternal {
		t.Fatalf("user comment stored as internal")
	}
	if own.Author == nil || own.Author.Name != "Ada" {
		t.Fatalf("Author = %+v, want Ada", own.Author)
	}

	userView, err := f.tickets.Get(ctx, owner, ticket.ID)
	if err != nil {
		t.Fatalf("owner Get() error = %v", err)
	}
	if len(userView.Thread) != 2 {
		t.Fatalf("owner sees %d comments, want 2", len(userView.Thread))
	}
	for _, c := range userView.Thread {
		if c.IsInternal {
			t.Fatalf("owner sees internal comment %q", c.Message)
		}
	}

	agentView, err := f.tickets.Get(ctx, agent, ticket.ID)
	if err != nil {
		t.Fatalf("agent Get() error = %v", err)
	}
	if len(agentView.Thread) != 3 {
		t.Fatalf("agent sees %d comments, want 3", len(agentView.Thread))
	}
	if agentView.Thread[0].Message != "checking the driver" {
		t.Fatalf("thread[0] = %q, want insertion order", agentView.Thread[0].Message)
	}
}

func TestChangeStatusStampsAreSticky(t *testing.T) {
	f := newFixture(t)
	owner := f.addUser(t, "Ada", domain.RoleUser)
	agent := f.addUser(t, "Cy", domain.RoleAgent)
	ticket := f.addTicket(t, owner, f.addCategory(t, "Billing"), "Printer jam", "The printer jams on every page")
	ctx := context.Background()

	resolved, err := f.tickets.ChangeStatus(ctx, agent, ticket.ID, "resolved")
	if err != nil {
		t.Fatalf("ChangeStatus(resolved) error = %v", err)
	}
	if resolved.ResolvedAt == nil {
		t.Fatalf("ResolvedAt not stamped")
	}
	stamp := *resolved.ResolvedAt

	closed, err := f.tickets.ChangeStatus(ctx, agent, ticket.ID, "closed")
	if err != nil {
		t.Fatalf("ChangeStatus(closed) error = %v", err)
	}
	if closed.ClosedAt == nil {
		t.Fatalf("ClosedAt not stamped")
	}
	reopened, err := f.tickets.ChangeStatus(ctx, agent, ticket.ID, "open")
	if err != nil {
		t.Fatalf("ChangeStatus(open) error = %v", err)
	}
	if reopened.ResolvedAt == nil || !reopened.ResolvedAt.Equal(stamp) {
		t.Fatalf("ResolvedAt = %v, want %v kept", reopened.ResolvedAt, stamp)
	}
	if reopened.ClosedAt == nil {
		t.Fatalf("ClosedAt cleared on reopen")
	}
	if got := len(f.eventsOfType(events.EventTicketStatusChanged)); got != 3 {
		t.Fatalf("status events = %d, want 3", got)
	}

	_, err = f.tickets.ChangeStatus(ctx, agent, ticket.ID, "archived")
	wantCode(t, err, apperrors.CodeInvalidArgument)
	_, err = f.tickets.ChangeStatus(ctx, owner, ticket.ID, "closed")
	wantCode(t, err, apperrors.CodeForbidden)
}

func TestVoteIsExclusive(t *testing.T) {
	f := newFixture(t)
	owner := f.addUser(t, "Ada", domain.RoleUser)
	agent := f.addUser(t, "Cy", domain.RoleAgent)
	ticket := f.addTicket(t, owner, f.addCategory(t, "Billing"), "Printer jam", "The printer jams on every page")
	ctx := context.Background()

	tally, err := f.tickets.Vote(ctx, owner, ticket.ID, "up")
	if err != nil {
		t.Fatalf("Vote(up) error = %v", err)
	}
	if tally.Upvotes != 1 || tally.Downvotes != 0 {
		t.Fatalf("tally = %+v, want 1/0", tally)
	}
	tally, err = f.tickets.Vote(ctx, owner, ticket.ID, "down")
	if err != nil {
		t.Fatalf("Vote(down) error = %v", err)
	}
	if tally.Upvotes != 0 || tally.Downvotes != 1 {
		t.Fatalf("tally = %+v, want 0/1", tally)
	}
	tally, err = f.tickets.Vote(ctx, agent, ticket.ID, "down")
	if err != nil {
		t.Fatalf("agent Vote(down) error = %v", err)
	}
	if tally.Downvotes != 2 {
		t.Fatalf("Downvotes = %d, want 2", tally.Downvotes)
	}

	_, err = f.tickets.Vote(ctx, owner, ticket.ID, "sideways")
	wantCode(t, err, apperrors.CodeInvalidArgument)
}

func TestAssignRequiresActiveStaff(t *testing.T) {
	f := newFixture(t)
	owner := f.addUser(t, "Ada", domain.RoleUser)
	agent := f.addUser(t, "Cy", domain.RoleAgent)
	ticket := f.addTicket(t, owner, f.addCategory(t, "Billing"), "Printer jam", "The printer jams on every page")
	ctx := context.Background()

	_, err := f.tickets.Assign(ctx, agent, ticket.ID, owner.ID)
	wantCode(t, err, apperrors.CodeInvalidArgument)
	_, err = f.tickets.Assign(ctx, owner, ticket.ID, agent.ID)
	wantCode(t, err, apperrors.CodeForbidden)

	view, err := f.tickets.Assign(ctx, agent, ticket.ID, agent.ID)
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if view.Assignee == nil || view.Assignee.ID != agent.ID {
		t.Fatalf("Assignee = %+v, want %s", view.Assignee, agent.ID)
	}
	view, err = f.tickets.Assign(ctx, agent, ticket.ID, "")
	if err != nil {
		t.Fatalf("Assign(unassign) error = %v", err)
	}
	if view.AssignedTo != nil {
		t.Fatalf("AssignedTo = %v, want nil", *view.AssignedTo)
	}

	prioritized, err := f.tickets.ChangePriority(ctx, agent, ticket.ID, "urgent")
	if err != nil {
		t.Fatalf("ChangePriority() error = %v", err)
	}
	if prioritized.Priority != domain.TicketPriorityUrgent {
		t.Fatalf("Priority = %s, want urgent", prioritized.Priority)
	}
}

func TestAttachmentsRoundTrip(t *testing.T) {
	f := newFixture(t)
	owner := f.addUser(t, "Ada", domain.RoleUser)
	other := f.addUser(t, "Bob", domain.RoleUser)
	ctx := context.Background()

	view, err := f.tickets.Create(ctx, owner, CreateTicketInput{
		Subject:     "Printer jam",
		Description: "The printer jams on every page",
		CategoryID:  f.addCategory(t, "Billing"),
	}, []AttachmentUpload{textUpload("log.txt", "paper error 42")})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if len(view.Attachments) != 1 {
		t.Fatalf("Attachments = %d, want 1", len(view.Attachments))
	}
	key := view.Attachments[0].StoragePath
	if !strings.HasPrefix(key, "tickets/"+view.ID+"/") {
		t.Fatalf("StoragePath = %q, want ticket prefix", key)
	}

	meta, body, err := f.tickets.OpenAttachment(ctx, owner, key)
	if err != nil {
		t.Fatalf("OpenAttachment() error = %v", err)
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(data) != "paper error 42" {
		t.Fatalf("body = %q", data)
	}
	if meta.OriginalName != "log.txt" {
		t.Fatalf("OriginalName = %q, want log.txt", meta.OriginalName)
	}

	_, _, err = f.tickets.OpenAttachment(ctx, other, key)
	wantCode(t, err, apperrors.CodeForbidden)
	_, _, err = f.tickets.OpenAttachment(ctx, owner, "tickets/"+view.ID+"/unknown.txt")
	wantCode(t, err, apperrors.CodeNotFound)
	_, _, err = f.tickets.OpenAttachment(ctx, owner, "../etc/passwd")
	wantCode(t, err, apperrors.CodeNotFound)
}
