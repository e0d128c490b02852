package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quickdesk/helpdesk-api/internal/auth"
	"github.com/quickdesk/helpdesk-api/internal/domain"
	"github.com/quickdesk/helpdesk-api/internal/events"
	"github.com/quickdesk/helpdesk-api/internal/repository"
	"github.com/quickdesk/helpdesk-api/internal/storage"
	apperrors "github.com/quickdesk/helpdesk-api/pkg/util/errorutil"
)

const (
	minSubjectLength     = 5
	minDescriptionLength = 10
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets     repository.TicketRepository
	categories  repository.CategoryRepository
	users       repository.UserRepository
	history     repository.TicketHistoryRepository
	attachments AttachmentStore
	events      publisher
	logger      *zap.Logger
	now         Clock
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	CategoryRepo repository.CategoryRepository
	UserRepo     repository.UserRepository
	HistoryRepo  repository.TicketHistoryRepository
	Attachments  AttachmentStore
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	Clock        Clock
}

// CreateTicketInput describes ticket creation payload.
type CreateTicketInput struct {
	Subject     string
	Description string
	CategoryID  string
	Priority    string
	Tags        []string
}

// CommentInput describes a new comment.
type CommentInput struct {
	Message    string
	IsInternal bool
}

// CategoryRef is the populated projection of a category.
type CategoryRef struct {
	ID    string
	Name  string
	Color string
}

// CommentView is a comment with its author populated.
type CommentView struct {
	domain.Comment
	Author *domain.UserRef
}

// TicketView is a ticket with category, people and comment authors populated.
type TicketView struct {
	domain.Ticket
	Category *CategoryRef
	Creator  *domain.UserRef
	Assignee *domain.UserRef
	Thread   []CommentView
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	now := clockOrDefault(deps.Clock)
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:     deps.TicketRepo,
		categories:  deps.CategoryRepo,
		users:       deps.UserRepo,
		history:     deps.HistoryRepo,
		attachments: deps.Attachments,
		events:      newPublisher(deps.Dispatcher, logger, now),
		logger:      logger,
		now:         now,
	}
}

// Create files a new open ticket owned by the caller.
func (s *TicketService) Create(ctx context.Context, identity domain.Identity, input CreateTicketInput, uploads []AttachmentUpload) (*TicketView, error) {
	if err := auth.Authorize(identity, auth.ActionCreateTicket, nil).Err(); err != nil {
		return nil, err
	}

	subject := strings.TrimSpace(input.Subject)
	description := strings.TrimSpace(input.Description)
	if runeLen(subject) < minSubjectLength {
		return nil, validationFailed("subject", "subject must be at least 5 characters")
	}
	if runeLen(description) < minDescriptionLength {
		return nil, validationFailed("description", "description must be at least 10 characters")
	}
	priority := domain.TicketPriority(strings.TrimSpace(input.Priority))
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !priority.Valid() {
		return nil, validationFailed("priority", "priority must be one of low, medium, high, urgent")
	}
	categoryID := strings.TrimSpace(input.CategoryID)
	if categoryID == "" {
		return nil, validationFailed("category", "valid category is required")
	}
	if err := validateUploads(uploads, MaxTicketAttachments); err != nil {
		return nil, err
	}

	category, err := s.categories.GetByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, validationFailed("category", "category does not exist")
		}
		return nil, translateRepoError(err, "category")
	}
	if !category.Active {
		return nil, validationFailed("category", "category is inactive")
	}

	ticket := &domain.Ticket{
		ID:          uuid.NewString(),
		Subject:     subject,
		Description: description,
		CategoryID:  category.ID,
		Priority:    priority,
		Status:      domain.TicketStatusOpen,
		CreatedBy:   identity.ID,
		Tags:        cleanTags(input.Tags),
		Upvotes:     []string{},
		Downvotes:   []string{},
		CreatedAt:   s.now(),
	}

	writer := &attachmentWriter{store: s.attachments, logger: s.logger}
	ticket.Attachments, err = writer.storeAll(ctx, ticketAttachmentPrefix(ticket.ID), uploads)
	if err != nil {
		writer.rollback()
		return nil, err
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		writer.rollback()
		return nil, translateRepoError(err, "ticket")
	}

	s.logger.Info("ticket created",
		zap.String("ticket_id", ticket.ID),
		zap.String("ticket_number", ticket.TicketNumber()),
		zap.String("user_id", identity.ID))
	s.events.publish(ctx, events.Event{
		Type:      events.EventTicketCreated,
		SubjectID: ticket.ID,
		Actor:     events.ActorOf(identity),
		Payload: events.TicketCreatedPayload{
			TicketNumber: ticket.TicketNumber(),
			CategoryID:   ticket.CategoryID,
			Priority:     ticket.Priority,
			Subject:      ticket.Subject,
			Attachments:  len(ticket.Attachments),
		},
	})
	return s.view(ctx, ticket, nil)
}

// Get returns a ticket with its thread. Internal comments are dropped for
// callers that cannot see them.
func (s *TicketService) Get(ctx context.Context, identity domain.Identity, ticketID string) (*TicketView, error) {
	if err := auth.Authorize(identity, auth.ActionViewTicket, nil).Err(); err != nil {
		return nil, err
	}
	ticket, err := s.loadVisible(ctx, identity, auth.ActionViewTicket, ticketID)
	if err != nil {
		return nil, err
	}
	comments, err := s.visibleComments(ctx, identity, ticket.ID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, ticket, comments)
}

// ChangeStatus moves a ticket to any of the four statuses. Entering resolved or
// closed stamps the matching timestamp; stamps are never cleared.
func (s *TicketService) ChangeStatus(ctx context.Context, identity domain.Identity, ticketID, rawStatus string) (*TicketView, error) {
	if err := auth.Authorize(identity, auth.ActionChangeStatus, nil).Err(); err != nil {
		return nil, err
	}
	status := domain.TicketStatus(strings.TrimSpace(rawStatus))
	if !status.Valid() {
		return nil, apperrors.NewInvalidArgument("invalid status", map[string]any{"status": rawStatus})
	}
	ticket, err := s.loadVisible(ctx, identity, auth.ActionChangeStatus, ticketID)
	if err != nil {
		return nil, err
	}

	updated, err := s.tickets.UpdateStatus(ctx, ticket.ID, status, s.now())
	if err != nil {
		return nil, translateRepoError(err, "ticket")
	}
	if ticket.Status != status {
		s.events.publish(ctx, events.Event{
			Type:      events.EventTicketStatusChanged,
			SubjectID: ticket.ID,
			Actor:     events.ActorOf(identity),
			Payload:   events.TicketStatusChangedPayload{OldStatus: ticket.Status, NewStatus: status},
		})
	}
	return s.view(ctx, updated, nil)
}

// AddComment appends a comment to the thread. Only roles that can read internal
// comments can write them; anyone else has the flag cleared.
func (s *TicketService) AddComment(ctx context.Context, identity domain.Identity, ticketID string, input CommentInput, uploads []AttachmentUpload) (*CommentView, error) {
	if err := auth.Authorize(identity, auth.ActionComment, nil).Err(); err != nil {
		return nil, err
	}
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, validationFailed("message", "message is required")
	}
	if err := validateUploads(uploads, MaxCommentAttachments); err != nil {
		return nil, err
	}
	ticket, err := s.loadVisible(ctx, identity, auth.ActionComment, ticketID)
	if err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		TicketID:   ticket.ID,
		AuthorID:   identity.ID,
		Message:    message,
		IsInternal: input.IsInternal && identity.Can(domain.CapCommentInternal),
		CreatedAt:  s.now(),
	}
	writer := &attachmentWriter{store: s.attachments, logger: s.logger}
	comment.Attachments, err = writer.storeAll(ctx, commentAttachmentPrefix(ticket.ID), uploads)
	if err != nil {
		writer.rollback()
		return nil, err
	}
	if err := s.tickets.AddComment(ctx, comment); err != nil {
		writer.rollback()
		return nil, translateRepoError(err, "ticket")
	}

	s.events.publish(ctx, events.Event{
		Type:      events.EventTicketCommentAdded,
		SubjectID: ticket.ID,
		Actor:     events.ActorOf(identity),
		Payload: events.TicketCommentAddedPayload{
			CommentID:   comment.ID,
			IsInternal:  comment.IsInternal,
			BodyPreview: preview(comment.Message, 80),
		},
	})

	refs, err := userRefs(ctx, s.users, []string{comment.AuthorID})
	if err != nil {
		return nil, err
	}
	return &CommentView{Comment: *comment, Author: refs.lookup(comment.AuthorID)}, nil
}

// Vote records the caller's up or down vote, replacing any previous vote.
func (s *TicketService) Vote(ctx context.Context, identity domain.Identity, ticketID, rawDirection string) (domain.VoteTally, error) {
	if err := auth.Authorize(identity, auth.ActionVote, nil).Err(); err != nil {
		return domain.VoteTally{}, err
	}
	direction := domain.VoteDirection(strings.TrimSpace(rawDirection))
	if !direction.Valid() {
		return domain.VoteTally{}, apperrors.NewInvalidArgument("vote type must be up or down", map[string]any{
			"type": rawDirection,
		})
	}
	ticket, err := s.loadVisible(ctx, identity, auth.ActionVote, ticketID)
	if err != nil {
		return domain.VoteTally{}, err
	}

	tally, err := s.tickets.Vote(ctx, ticket.ID, identity.ID, direction, s.now())
	if err != nil {
		return domain.VoteTally{}, translateRepoError(err, "ticket")
	}
	s.events.publish(ctx, events.Event{
		Type:      events.EventTicketVoted,
		SubjectID: ticket.ID,
		Actor:     events.ActorOf(identity),
		Payload: events.TicketVotedPayload{
			Direction: direction,
			Upvotes:   tally.Upvotes,
			Downvotes: tally.Downvotes,
		},
	})
	return tally, nil
}

// OpenAttachment streams a stored file when the caller can see the ticket and
// the comment that reference it.
func (s *TicketService) OpenAttachment(ctx context.Context, identity domain.Identity, key string) (*domain.Attachment, io.ReadCloser, error) {
	ticketID, ok := ticketIDFromKey(key)
	if !ok {
		return nil, nil, apperrors.NewNotFound("attachment", nil)
	}
	view, err := s.Get(ctx, identity, ticketID)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeNotFound) {
			return nil, nil, apperrors.NewNotFound("attachment", nil)
		}
		return nil, nil, err
	}
	attachment := findAttachment(view, key)
	if attachment == nil {
		return nil, nil, apperrors.NewNotFound("attachment", nil)
	}
	if s.attachments == nil {
		return nil, nil, apperrors.NewNotFound("attachment", nil)
	}
	body, err := s.attachments.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, apperrors.NewNotFound("attachment", nil)
		}
		return nil, nil, apperrors.NewInternalError(err)
	}
	return attachment, body, nil
}

func findAttachment(view *TicketView, key string) *domain.Attachment {
	for i := range view.Attachments {
		if view.Attachments[i].StoragePath == key {
			return &view.Attachments[i]
		}
	}
	for i := range view.Thread {
		for j := range view.Thread[i].Attachments {
			if view.Thread[i].Attachments[j].StoragePath == key {
				return &view.Thread[i].Attachments[j]
			}
		}
	}
	return nil
}

// loadVisible fetches a ticket and checks the action against it. Missing
// tickets are NotFound; tickets outside the caller's scope are Forbidden.
func (s *TicketService) loadVisible(ctx context.Context, identity domain.Identity, action auth.Action, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, translateRepoError(err, "ticket")
	}
	if err := auth.Authorize(identity, action, ticket).Err(); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (s *TicketService) visibleComments(ctx context.Context, identity domain.Identity, ticketID string) ([]domain.Comment, error) {
	comments, err := s.tickets.ListComments(ctx, ticketID)
	if err != nil {
		return nil, translateRepoError(err, "ticket")
	}
	if identity.Can(domain.CapViewInternal) {
		return comments, nil
	}
	visible := comments[:0]
	for _, comment := range comments {
		if !comment.IsInternal {
			visible = append(visible, comment)
		}
	}
	return visible, nil
}

func (s *TicketService) view(ctx context.Context, ticket *domain.Ticket, comments []domain.Comment) (*TicketView, error) {
	views, err := s.populateWithComments(ctx, []domain.Ticket{*ticket}, comments)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *TicketService) populate(ctx context.Context, tickets []domain.Ticket) ([]TicketView, error) {
	return s.populateWithComments(ctx, tickets, nil)
}

// populateWithComments resolves every referenced category and user with one
// lookup each. comments, when given, belong to the single ticket in tickets.
func (s *TicketService) populateWithComments(ctx context.Context, tickets []domain.Ticket, comments []domain.Comment) ([]TicketView, error) {
	categoryIDs := make([]string, 0, len(tickets))
	userIDs := make([]string, 0, len(tickets)*2+len(comments))
	for _, ticket := range tickets {
		categoryIDs = append(categoryIDs, ticket.CategoryID)
		userIDs = append(userIDs, ticket.CreatedBy)
		if ticket.AssignedTo != nil {
			userIDs = append(userIDs, *ticket.AssignedTo)
		}
	}
	for _, comment := range comments {
		userIDs = append(userIDs, comment.AuthorID)
	}

	categories := map[string]CategoryRef{}
	if len(categoryIDs) > 0 {
		loaded, err := s.categories.ListByIDs(ctx, categoryIDs)
		if err != nil {
			return nil, translateRepoError(err, "category")
		}
		for _, category := range loaded {
			categories[category.ID] = CategoryRef{ID: category.ID, Name: category.Name, Color: category.Color}
		}
	}
	refs, err := userRefs(ctx, s.users, userIDs)
	if err != nil {
		return nil, err
	}

	views := make([]TicketView, 0, len(tickets))
	for _, ticket := range tickets {
		view := TicketView{Ticket: ticket, Creator: refs.lookup(ticket.CreatedBy)}
		if category, ok := categories[ticket.CategoryID]; ok {
			view.Category = &category
		}
		if ticket.AssignedTo != nil {
			view.Assignee = refs.lookup(*ticket.AssignedTo)
		}
		views = append(views, view)
	}
	if len(views) == 1 && comments != nil {
		thread := make([]CommentView, 0, len(comments))
		for _, comment := range comments {
			thread = append(thread, CommentView{Comment: comment, Author: refs.lookup(comment.AuthorID)})
		}
		views[0].Thread = thread
	}
	return views, nil
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
