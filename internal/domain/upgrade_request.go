package domain

import "time"

// UpgradeStatus is the state of an upgrade request. Approved and rejected are terminal.
type UpgradeStatus string

const (
	UpgradeStatusPending  UpgradeStatus = "pending"
	UpgradeStatusApproved UpgradeStatus = "approved"
	UpgradeStatusRejected UpgradeStatus = "rejected"
)

// Terminal reports whether no further transition is allowed.
func (s UpgradeStatus) Terminal() bool {
	return s == UpgradeStatusApproved || s == UpgradeStatusRejected
}

// UpgradeRequest is a user's request to move to a more privileged role.
type UpgradeRequest struct {
	ID            string
	UserID        string
	UserName      string
	UserEmail     string
	CurrentRole   Role
	RequestedRole Role
	Reason        string
	Status        UpgradeStatus
	AdminNotes    string
	ReviewedBy    *string
	ReviewedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// UpgradeReview carries the reviewer's decision.
type UpgradeReview struct {
	Decision   UpgradeStatus
	AdminNotes string
	ReviewerID string
	ReviewedAt time.Time
}
