package events

import (
	"time"

	"github.com/quickdesk/helpdesk-api/internal/domain"
)

// EventType enumerates supported event identifiers. Values double as AMQP routing keys.
type EventType string

const (
	EventTicketCreated         EventType = "ticket.created"
	EventTicketStatusChanged   EventType = "ticket.status_changed"
	EventTicketPriorityChanged EventType = "ticket.priority_changed"
	EventTicketAssigned        EventType = "ticket.assigned"
	EventTicketCommentAdded    EventType = "ticket.comment_added"
	EventTicketVoted           EventType = "ticket.voted"
	EventUpgradeRequested      EventType = "upgrade.requested"
	EventUpgradeReviewed       EventType = "upgrade.reviewed"
	EventUserRoleChanged       EventType = "user.role_changed"
	EventUserDeactivated       EventType = "user.deactivated"
)

// AllEventTypes lists every event type, for subscribers that want everything.
var AllEventTypes = []EventType{
	EventTicketCreated,
	EventTicketStatusChanged,
	EventTicketPriorityChanged,
	EventTicketAssigned,
	EventTicketCommentAdded,
	EventTicketVoted,
	EventUpgradeRequested,
	EventUpgradeReviewed,
	EventUserRoleChanged,
	EventUserDeactivated,
}

// Actor identifies who triggered an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// ActorOf converts an identity into event actor metadata.
func ActorOf(identity domain.Identity) Actor {
	return Actor{UserID: identity.ID, Role: identity.Role}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	SubjectID string    `json:"subject_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketNumber string                `json:"ticket_number"`
	CategoryID   string                `json:"category_id"`
	Priority     domain.TicketPriority `json:"priority"`
	Subject      string                `json:"subject"`
	Attachments  int                   `json:"attachments"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketPriorityChangedPayload payload.
type TicketPriorityChangedPayload struct {
	OldPriority domain.TicketPriority `json:"old_priority"`
	NewPriority domain.TicketPriority `json:"new_priority"`
}

// TicketAssignedPayload payload. A nil assignee means the ticket was unassigned.
type TicketAssignedPayload struct {
	PreviousID *string `json:"previous_assignee_id,omitempty"`
	AssigneeID *string `json:"assignee_id,omitempty"`
}

// TicketCommentAddedPayload payload.
type TicketCommentAddedPayload struct {
	CommentID   string `json:"comment_id"`
	IsInternal  bool   `json:"is_internal"`
	BodyPreview string `json:"body_preview"`
}

// TicketVotedPayload payload.
type TicketVotedPayload struct {
	Direction domain.VoteDirection `json:"direction"`
	Upvotes   int                  `json:"upvotes"`
	Downvotes int                  `json:"downvotes"`
}

// UpgradeRequestedPayload payload.
type UpgradeRequestedPayload struct {
	UserID        string      `json:"user_id"`
	CurrentRole   domain.Role `json:"current_role"`
	RequestedRole domain.Role `json:"requested_role"`
}

// UpgradeReviewedPayload payload.
type UpgradeReviewedPayload struct {
	UserID        string               `json:"user_id"`
	RequestedRole domain.Role          `json:"requested_role"`
	Decision      domain.UpgradeStatus `json:"decision"`
}

// UserRoleChangedPayload payload.
type UserRoleChangedPayload struct {
	OldRole domain.Role `json:"old_role"`
	NewRole domain.Role `json:"new_role"`
}
