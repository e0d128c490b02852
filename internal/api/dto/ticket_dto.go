package dto

import (
	"time"

	"github.com/quickdesk/helpdesk-api/internal/domain"
	"github.com/quickdesk/helpdesk-api/internal/service"
)

// AttachmentURLPrefix is the download route for stored files.
const AttachmentURLPrefix = "/attachments/"

// StatusRequest payload for PATCH /tickets/:id/status.
type StatusRequest struct {
	Status string `json:"status"`
}

// PriorityRequest payload for PATCH /tickets/:id/priority.
type PriorityRequest struct {
	Priority string `json:"priority"`
}

// AssignRequest payload for PATCH /tickets/:id/assign. Empty unassigns.
type AssignRequest struct {
	AssignedTo string `json:"assignedTo"`
}

// VoteRequest payload for POST /tickets/:id/vote.
type VoteRequest struct {
	Type string `json:"type"`
}

// UserRefResponse is an embedded user reference.
type UserRefResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CategoryRefResponse is an embedded category reference.
type CategoryRefResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	Path         string `json:"path"`
	URL          string `json:"url"`
	ContentType  string `json:"contentType,omitempty"`
	Size         int64  `json:"size"`
}

// CommentResponse represents a thread entry.
type CommentResponse struct {
	ID          string               `json:"id"`
	User        *UserRefResponse     `json:"user"`
	Message     string               `json:"message"`
	IsInternal  bool                 `json:"isInternal"`
	Attachments []AttachmentResponse `json:"attachments"`
	CreatedAt   time.Time            `json:"createdAt"`
}

// TicketResponse is the full ticket representation.
type TicketResponse struct {
	ID           string                `json:"id"`
	TicketNumber string                `json:"ticketNumber"`
	Subject      string                `json:"subject"`
	Description  string                `json:"description"`
	Category     *CategoryRefResponse  `json:"category"`
	Priority     domain.TicketPriority `json:"priority"`
	Status       domain.TicketStatus   `json:"status"`
	CreatedBy    *UserRefResponse      `json:"createdBy"`
	AssignedTo   *UserRefResponse      `json:"assignedTo"`
	Attachments  []AttachmentResponse  `json:"attachments"`
	Comments     []CommentResponse     `json:"comments,omitempty"`
	Upvotes      int                   `json:"upvotes"`
	Downvotes    int                   `json:"downvotes"`
	UserVote     *domain.VoteDirection `json:"userVote"`
	Tags         []string              `json:"tags"`
	ResolvedAt   *time.Time            `json:"resolvedAt"`
	ClosedAt     *time.Time            `json:"closedAt"`
	CreatedAt    time.Time             `json:"createdAt"`
	UpdatedAt    time.Time             `json:"updatedAt"`
}

// TicketPageResponse is a page of tickets.
type TicketPageResponse struct {
	Tickets     []TicketResponse `json:"tickets"`
	CurrentPage int              `json:"currentPage"`
	TotalPages  int              `json:"totalPages"`
	Total       int              `json:"total"`
}

// VoteResponse is the tally after a vote.
type VoteResponse struct {
	Upvotes   int                  `json:"upvotes"`
	Downvotes int                  `json:"downvotes"`
	UserVote  domain.VoteDirection `json:"userVote"`
}

// NewUserRef converts a populated user reference.
func NewUserRef(ref *domain.UserRef) *UserRefResponse {
	if ref == nil {
		return nil
	}
	return &UserRefResponse{ID: ref.ID, Name: ref.Name, Email: ref.Email}
}

// NewAttachments converts attachment metadata, adding download URLs.
func NewAttachments(attachments []domain.Attachment) []AttachmentResponse {
	out := make([]AttachmentResponse, 0, len(attachments))
	for _, a := range attachments {
		out = append(out, AttachmentResponse{
			Filename:     a.Filename,
			OriginalName: a.OriginalName,
			Path:         a.StoragePath,
			URL:          AttachmentURLPrefix + a.StoragePath,
			ContentType:  a.ContentType,
			Size:         a.Size,
		})
	}
	return out
}

// NewComment converts a comment view.
func NewComment(view service.CommentView) CommentResponse {
	return CommentResponse{
		ID:          view.ID,
		User:        NewUserRef(view.Author),
		Message:     view.Message,
		IsInternal:  view.IsInternal,
		Attachments: NewAttachments(view.Attachments),
		CreatedAt:   view.CreatedAt,
	}
}

// NewTicket converts a ticket view for the given viewer.
func NewTicket(view service.TicketView, viewerID string) TicketResponse {
	resp := TicketResponse{
		ID:           view.ID,
		TicketNumber: view.TicketNumber(),
		Subject:      view.Subject,
		Description:  view.Description,
		Priority:     view.Priority,
		Status:       view.Status,
		CreatedBy:    NewUserRef(view.Creator),
		AssignedTo:   NewUserRef(view.Assignee),
		Attachments:  NewAttachments(view.Attachments),
		Upvotes:      len(view.Upvotes),
		Downvotes:    len(view.Downvotes),
		Tags:         view.Tags,
		ResolvedAt:   view.ResolvedAt,
		ClosedAt:     view.ClosedAt,
		CreatedAt:    view.CreatedAt,
		UpdatedAt:    view.UpdatedAt,
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if view.Category != nil {
		resp.Category = &CategoryRefResponse{ID: view.Category.ID, Name: view.Category.Name, Color: view.Category.Color}
	}
	if vote := view.UserVote(viewerID); vote != "" {
		resp.UserVote = &vote
	}
	if view.Thread != nil {
		resp.Comments = make([]CommentResponse, 0, len(view.Thread))
		for _, comment := range view.Thread {
			resp.Comments = append(resp.Comments, NewComment(comment))
		}
	}
	return resp
}

// NewTicketPage converts a listing page.
func NewTicketPage(page *service.TicketPage, viewerID string) TicketPageResponse {
	tickets := make([]TicketResponse, 0, len(page.Items))
	for _, item := range page.Items {
		tickets = append(tickets, NewTicket(item, viewerID))
	}
	return TicketPageResponse{
		Tickets:     tickets,
		CurrentPage: page.Page,
		TotalPages:  page.TotalPages,
		Total:       page.Total,
	}
}

// CreateTicketRequest payload for POST /tickets, sent as JSON or multipart form.
type CreateTicketRequest struct {
	Subject     string   `json:"subject" form:"subject"`
	Description string   `json:"description" form:"description"`
	Category    string   `json:"category" form:"category"`
	Priority    string   `json:"priority" form:"priority"`
	Tags        []string `json:"tags" form:"tags"`
}

// CommentRequest payload for POST /tickets/:id/comments, sent as JSON or multipart form.
type CommentRequest struct {
	Message    string `json:"message" form:"message"`
	IsInternal bool   `json:"isInternal" form:"isInternal"`
}

// HistoryEntryResponse is one ticket activity log entry.
type HistoryEntryResponse struct {
	ID         string           `json:"id"`
	ChangeType string           `json:"changeType"`
	OldValue   *string          `json:"oldValue"`
	NewValue   *string          `json:"newValue"`
	Actor      *UserRefResponse `json:"actor"`
	ActorRole  string           `json:"actorRole"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// NewHistory maps activity log entries for output.
func NewHistory(entries []service.HistoryEntryView) []HistoryEntryResponse {
	out := make([]HistoryEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, HistoryEntryResponse{
			ID:         entry.ID,
			ChangeType: string(entry.ChangeType),
			OldValue:   entry.OldValue,
			NewValue:   entry.NewValue,
			Actor:      NewUserRef(entry.Actor),
			ActorRole:  string(entry.ActorRole),
			CreatedAt:  entry.CreatedAt,
		})
	}
	return out
}
