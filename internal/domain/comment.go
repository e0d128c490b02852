package domain

import "time"

// Comment is an append-only entry in a ticket thread.
type Comment struct {
	ID          string
	TicketID    string
	Seq         int64
	AuthorID    string
	Message     string
	IsInternal  bool
	Attachments []Attachment
	CreatedAt   time.Time
}
