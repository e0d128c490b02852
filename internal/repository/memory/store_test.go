package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/quickdesk/helpdesk-api/internal/domain"
	"github.com/quickdesk/helpdesk-api/internal/repository"
)

func seed(t *testing.T) (*Store, *domain.User, *domain.Category) {
	t.Helper()
	store := NewStore()
	ctx := context.Background()

	user := &domain.User{Name: "Ada", Email: "ada@example.com", PasswordHash: "x", Role: domain.RoleUser, Active: true}
	if err := store.Users().Create(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	category := &domain.Category{Name: "Billing", Color: domain.DefaultCategoryColor, CreatedBy: user.ID, Active: true}
	if err := store.Categories().Create(ctx, category); err != nil {
		t.Fatalf("create category: %v", err)
	}
	return store, user, category
}

func newTicket(t *testing.T, store *Store, user *domain.User, category *domain.Category, subject string) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{
		Subject:     subject,
		Description: "a description long enough",
		CategoryID:  category.ID,
		Priority:    domain.TicketPriorityMedium,
		Status:      domain.TicketStatusOpen,
		CreatedBy:   user.ID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := store.Tickets().Create(context.Background(), ticket); err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	return ticket
}

func TestUserEmailUniqueIgnoresCase(t *testing.T) {
	store, _, _ := seed(t)
	dup := &domain.User{Name: "Other", Email: "ADA@example.com", Role: domain.RoleUser, Active: true}
	err := store.Users().Create(context.Background(), dup)
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("Create duplicate email err = %v, want ErrConflict", err)
	}
}

func TestTicketNumbersAreUniqueUnderConcurrency(t *testing.T) {
	store, user, category := seed(t)
	const n = 50

	var wg sync.WaitGroup
	numbers := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ticket := &domain.Ticket{
				Subject:     fmt.Sprintf("ticket %d", i),
				Description: "concurrent creation",
				CategoryID:  category.ID,
				Priority:    domain.TicketPriorityLow,
				Status:      domain.TicketStatusOpen,
				CreatedBy:   user.ID,
			}
			if err := store.Tickets().Create(context.Background(), ticket); err != nil {
				t.Errorf("create: %v", err)
				return
			}
			numbers <- ticket.Number
		}(i)
	}
	wg.Wait()
	close(numbers)

	seen := map[int64]bool{}
	for number := range numbers {
		if seen[number] {
			t.Fatalf("duplicate ticket number %d", number)
		}
		seen[number] = true
	}
	if len(seen) != n {
		t.Fatalf("got %d numbers, want %d", len(seen), n)
	}
}

func TestConcurrentVotesStayExclusive(t *testing.T) {
	store, user, category := seed(t)
	ticket := newTicket(t, store, user, category, "Printer broken")
	repo := store.Tickets()
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 100)
	for i := 0; i < 100; i++ {
		direction := domain.VoteUp
		if i%2 == 1 {
			direction = domain.VoteDown
		}
		wg.Add(1)
		go func(direction domain.VoteDirection) {
			defer wg.Done()
			if _, err := repo.Vote(ctx, ticket.ID, user.ID, direction, time.Now().UTC()); err != nil {
				errs <- err
			}
		}(direction)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("vote: %v", err)
	}

	got, err := repo.GetByID(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("get ticket: %v", err)
	}
	if total := len(got.Upvotes) + len(got.Downvotes); total != 1 {
		t.Fatalf("upvotes %v downvotes %v, want exactly one vote", got.Upvotes, got.Downvotes)
	}
}

func TestVoteKeepsSidesExclusive(t *testing.T) {
	store, user, category := seed(t)
	ticket := newTicket(t, store, user, category, "Printer broken")
	repo := store.Tickets()
	ctx := context.Background()
	now := time.Now().UTC()

	tally, err := repo.Vote(ctx, ticket.ID, user.ID, domain.VoteUp, now)
	if err != nil {
		t.Fatalf("vote up: %v", err)
	}
	if tally.Upvotes != 1 || tally.Downvotes != 0 {
		t.Fatalf("after up: %+v", tally)
	}

	tally, err = repo.Vote(ctx, ticket.ID, user.ID, domain.VoteUp, now)
	if err != nil {
		t.Fatalf("repeat vote: %v", err)
	}
	if tally.Upvotes != 1 {
		t.Fatalf("repeat up upvotes = %d, want 1", tally.Upvotes)
	}

	tally, err = repo.Vote(ctx, ticket.ID, user.ID, domain.VoteDown, now)
	if err != nil {
		t.Fatalf("switch vote: %v", err)
	}
	if tally.Upvotes != 0 || tally.Downvotes != 1 || tally.UserVote != domain.VoteDown {
		t.Fatalf("after switch: %+v", tally)
	}

	stored, err := repo.GetByID(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got := stored.UserVote(user.ID); got != domain.VoteDown {
		t.Fatalf("UserVote = %q, want down", got)
	}
}

func TestUpdateStatusStampsAreSticky(t *testing.T) {
	store, user, category := seed(t)
	ticket := newTicket(t, store, user, category, "VPN drops")
	repo := store.Tickets()
	ctx := context.Background()

	resolvedAt := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	updated, err := repo.UpdateStatus(ctx, ticket.ID, domain.TicketStatusResolved, resolvedAt)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if updated.ResolvedAt == nil || !updated.ResolvedAt.Equal(resolvedAt) {
		t.Fatalf("ResolvedAt = %v, want %v", updated.ResolvedAt, resolvedAt)
	}

	reopened, err := repo.UpdateStatus(ctx, ticket.ID, domain.TicketStatusOpen, resolvedAt.Add(time.Hour))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.ResolvedAt == nil {
		t.Fatalf("ResolvedAt cleared on reopen")
	}
	if reopened.ClosedAt != nil {
		t.Fatalf("ClosedAt = %v, want nil", reopened.ClosedAt)
	}
}

func TestListSortsAndPaginates(t *testing.T) {
	store, user, category := seed(t)
	subjects := []string{"Charlie issue", "alpha issue", "Bravo issue"}
	for _, subject := range subjects {
		newTicket(t, store, user, category, subject)
	}

	tickets, total, err := store.Tickets().List(context.Background(), repository.TicketQuery{
		SortField: repository.SortSubject,
		Limit:     2,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}
	if len(tickets) != 2 || tickets[0].Subject != "alpha issue" || tickets[1].Subject != "Bravo issue" {
		t.Fatalf("unexpected page: %+v", tickets)
	}

	tickets, _, err = store.Tickets().List(context.Background(), repository.TicketQuery{
		SortField: repository.SortCreatedAt,
		Limit:     10,
		Offset:    10,
	})
	if err != nil {
		t.Fatalf("list out of range: %v", err)
	}
	if len(tickets) != 0 {
		t.Fatalf("out of range page len = %d, want 0", len(tickets))
	}
}

func TestListSearchMatchesTicketNumber(t *testing.T) {
	store, user, category := seed(t)
	newTicket(t, store, user, category, "First ticket")
	second := newTicket(t, store, user, category, "Second ticket")

	term := second.TicketNumber()
	tickets, total, err := store.Tickets().List(context.Background(), repository.TicketQuery{
		Search: &term,
		Limit:  10,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || tickets[0].ID != second.ID {
		t.Fatalf("search %q returned %d tickets", term, total)
	}
}

func TestCommentsKeepInsertionOrder(t *testing.T) {
	store, user, category := seed(t)
	ticket := newTicket(t, store, user, category, "Laptop fan")
	repo := store.Tickets()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		comment := &domain.Comment{TicketID: ticket.ID, AuthorID: user.ID, Message: fmt.Sprintf("m%d", i)}
		if err := repo.AddComment(ctx, comment); err != nil {
			t.Fatalf("add comment: %v", err)
		}
	}
	comments, err := repo.ListComments(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	for i, comment := range comments {
		if want := fmt.Sprintf("m%d", i); comment.Message != want {
			t.Fatalf("comments[%d] = %q, want %q", i, comment.Message, want)
		}
	}
}

func TestUpgradeReviewRules(t *testing.T) {
	store, user, _ := seed(t)
	repo := store.UpgradeRequests()
	ctx := context.Background()

	request := &domain.UpgradeRequest{
		UserID:        user.ID,
		CurrentRole:   domain.RoleUser,
		RequestedRole: domain.RoleAgent,
		Reason:        "on the support rota",
		CreatedAt:     time.Now().UTC(),
	}
	if err := repo.CreatePending(ctx, request); err != nil {
		t.Fatalf("create: %v", err)
	}
	second := *request
	if err := repo.CreatePending(ctx, &second); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("second pending err = %v, want ErrConflict", err)
	}

	review := domain.UpgradeReview{Decision: domain.UpgradeStatusApproved, ReviewerID: "admin", ReviewedAt: time.Now().UTC()}
	reviewed, err := repo.Review(ctx, request.ID, review)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if reviewed.Status != domain.UpgradeStatusApproved || reviewed.ReviewedBy == nil {
		t.Fatalf("unexpected reviewed request: %+v", reviewed)
	}
	promoted, _ := store.Users().GetByID(ctx, user.ID)
	if promoted.Role != domain.RoleAgent {
		t.Fatalf("role = %q, want agent", promoted.Role)
	}

	if _, err := repo.Review(ctx, request.ID, review); !errors.Is(err, repository.ErrAlreadyReviewed) {
		t.Fatalf("second review err = %v, want ErrAlreadyReviewed", err)
	}
}

func TestUpgradeApprovalFailsWhenRoleChanged(t *testing.T) {
	store, user, _ := seed(t)
	repo := store.UpgradeRequests()
	ctx := context.Background()

	request := &domain.UpgradeRequest{UserID: user.ID, CurrentRole: domain.RoleUser, RequestedRole: domain.RoleAgent}
	if err := repo.CreatePending(ctx, request); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.Users().UpdateRole(ctx, user.ID, domain.RoleAdmin, time.Now()); err != nil {
		t.Fatalf("update role: %v", err)
	}

	_, err := repo.Review(ctx, request.ID, domain.UpgradeReview{Decision: domain.UpgradeStatusApproved, ReviewerID: "admin"})
	if !errors.Is(err, repository.ErrRoleChanged) {
		t.Fatalf("approve err = %v, want ErrRoleChanged", err)
	}
	stored, _ := repo.GetByID(ctx, request.ID)
	if stored.Status != domain.UpgradeStatusPending {
		t.Fatalf("status = %q, want pending", stored.Status)
	}
}
