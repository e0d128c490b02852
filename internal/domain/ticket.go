package domain

import (
	"fmt"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in-progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// Valid reports whether s is one of the four known statuses.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// Rank orders priorities from low (1) to urgent (4); unknown values rank 0.
func (p TicketPriority) Rank() int {
	switch p {
	case TicketPriorityLow:
		return 1
	case TicketPriorityMedium:
		return 2
	case TicketPriorityHigh:
		return 3
	case TicketPriorityUrgent:
		return 4
	}
	return 0
}

// Valid reports whether p is one of the four known priorities.
func (p TicketPriority) Valid() bool {
	return p.Rank() > 0
}

// VoteDirection is the side of a ticket vote.
type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

// Valid reports whether d is up or down.
func (d VoteDirection) Valid() bool {
	return d == VoteUp || d == VoteDown
}

// Attachment references a stored file.
type Attachment struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	StoragePath  string `json:"storagePath"`
	ContentType  string `json:"contentType,omitempty"`
	Size         int64  `json:"size"`
}

// Ticket is the aggregate for support requests. Comments are loaded separately
// and ordered by creation.
type Ticket struct {
	ID          string
	Number      int64
	Subject     string
	Description string
	CategoryID  string
	Priority    TicketPriority
	Status      TicketStatus
	CreatedBy   string
	AssignedTo  *string
	Attachments []Attachment
	Comments    []Comment
	Upvotes     []string
	Downvotes   []string
	Tags        []string
	ResolvedAt  *time.Time
	ClosedAt    *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TicketNumberPrefix prefixes rendered ticket numbers.
const TicketNumberPrefix = "QD-"

// FormatTicketNumber renders a ticket number as QD-000042.
func FormatTicketNumber(n int64) string {
	return fmt.Sprintf("%s%06d", TicketNumberPrefix, n)
}

// TicketNumber returns the human-readable ticket number.
func (t *Ticket) TicketNumber() string {
	return FormatTicketNumber(t.Number)
}

// UserVote returns the caller's current vote, or "" when the user has not voted.
func (t *Ticket) UserVote(userID string) VoteDirection {
	for _, id := range t.Upvotes {
		if id == userID {
			return VoteUp
		}
	}
	for _, id := range t.Downvotes {
		if id == userID {
			return VoteDown
		}
	}
	return ""
}

// VoteTally is the result of a vote call.
type VoteTally struct {
	Upvotes   int
	Downvotes int
	UserVote  VoteDirection
}
