package domain

import "time"

// TicketChange names the kind of change a history entry records.
type TicketChange string

const (
	TicketChangeCreated  TicketChange = "created"
	TicketChangeStatus   TicketChange = "status"
	TicketChangePriority TicketChange = "priority"
	TicketChangeAssignee TicketChange = "assignee"
	TicketChangeComment  TicketChange = "comment"
)

// TicketHistory is one entry of a ticket's activity log, oldest first.
type TicketHistory struct {
	ID         string
	TicketID   string
	ActorID    string
	ActorRole  Role
	ChangeType TicketChange
	OldValue   *string
	NewValue   *string
	CreatedAt  time.Time
}
