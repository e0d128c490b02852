package dto

import (
	"time"

	"github.com/quickdesk/helpdesk-api/internal/domain"
	"github.com/quickdesk/helpdesk-api/internal/service"
)

// UpgradeRequestPayload payload for POST /upgrade-requests.
type UpgradeRequestPayload struct {
	CurrentRole   string `json:"currentRole"`
	RequestedRole string `json:"requestedRole"`
	Reason        string `json:"reason"`
}

// UpgradeReviewPayload payload for PUT /upgrade-requests/:id.
type UpgradeReviewPayload struct {
	Status     string `json:"status"`
	AdminNotes string `json:"adminNotes"`
}

// UpgradeRequestResponse is the public view of an upgrade request.
type UpgradeRequestResponse struct {
	ID            string               `json:"id"`
	UserID        string               `json:"userId"`
	UserName      string               `json:"userName"`
	UserEmail     string               `json:"userEmail"`
	CurrentRole   domain.Role          `json:"currentRole"`
	RequestedRole domain.Role          `json:"requestedRole"`
	Reason        string               `json:"reason"`
	Status        domain.UpgradeStatus `json:"status"`
	AdminNotes    string               `json:"adminNotes,omitempty"`
	ReviewedBy    *UserRefResponse     `json:"reviewedBy"`
	ReviewedAt    *time.Time           `json:"reviewedAt"`
	CreatedAt     time.Time            `json:"createdAt"`
}

// NewUpgradeRequest converts an upgrade request view.
func NewUpgradeRequest(view service.UpgradeRequestView) UpgradeRequestResponse {
	return UpgradeRequestResponse{
		ID:            view.ID,
		UserID:        view.UserID,
		UserName:      view.UserName,
		UserEmail:     view.UserEmail,
		CurrentRole:   view.CurrentRole,
		RequestedRole: view.RequestedRole,
		Reason:        view.Reason,
		Status:        view.Status,
		AdminNotes:    view.AdminNotes,
		ReviewedBy:    NewUserRef(view.Reviewer),
		ReviewedAt:    view.ReviewedAt,
		CreatedAt:     view.CreatedAt,
	}
}

// NewUpgradeRequests converts a list of upgrade request views.
func NewUpgradeRequests(views []service.UpgradeRequestView) []UpgradeRequestResponse {
	out := make([]UpgradeRequestResponse, 0, len(views))
	for _, view := range views {
		out = append(out, NewUpgradeRequest(view))
	}
	return out
}
