package auth

import (
	"github.com/quickdesk/helpdesk-api/internal/domain"
	apperrors "github.com/quickdesk/helpdesk-api/pkg/util/errorutil"
)

// Action is an operation checked by the gate.
type Action string

const (
	ActionViewTicket       Action = "view_ticket"
	ActionCreateTicket     Action = "create_ticket"
	ActionComment          Action = "comment"
	ActionChangeStatus     Action = "change_status"
	ActionTriage           Action = "triage"
	ActionVote             Action = "vote"
	ActionManageCategories Action = "manage_categories"
	ActionManageUsers      Action = "manage_users"
	ActionReviewUpgrade    Action = "review_upgrade"
	ActionViewHistory      Action = "view_history"
)

var requiredCapability = map[Action]domain.Capability{
	ActionViewTicket:       domain.CapViewOwnTickets,
	ActionCreateTicket:     domain.CapCreateTicket,
	ActionComment:          domain.CapComment,
	ActionChangeStatus:     domain.CapChangeStatus,
	ActionTriage:           domain.CapTriage,
	ActionVote:             domain.CapVote,
	ActionManageCategories: domain.CapManageCategories,
	ActionManageUsers:      domain.CapManageUsers,
	ActionReviewUpgrade:    domain.CapReviewUpgrades,
	ActionViewHistory:      domain.CapViewInternal,
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  string
}

// Err converts a deny decision into a FORBIDDEN error; allow yields nil.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return apperrors.NewForbidden(d.Reason)
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Reason: reason} }

// Authorize checks the identity's role and, for ticket-scoped actions, ownership.
// ticket may be nil for actions that do not target a single ticket.
func Authorize(identity domain.Identity, action Action, ticket *domain.Ticket) Decision {
	if identity.ID == "" || !identity.Role.Valid() {
		return deny("unknown identity")
	}
	capability, ok := requiredCapability[action]
	if !ok {
		return deny("unknown action")
	}
	if !identity.Can(capability) {
		return deny("insufficient role")
	}
	if ticket == nil {
		return allow()
	}
	if !CanSeeTicket(identity, ticket) {
		return deny("access denied")
	}
	return allow()
}

// CanSeeTicket reports whether the ticket falls inside the identity's visibility scope.
func CanSeeTicket(identity domain.Identity, ticket *domain.Ticket) bool {
	if identity.Can(domain.CapViewAllTickets) {
		return true
	}
	return identity.Can(domain.CapViewOwnTickets) && ticket.CreatedBy == identity.ID
}
