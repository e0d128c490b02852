package domain

// Role is the closed set of identity roles. Every authorization decision goes
// through the capability table below rather than comparing role strings.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
	RoleAdmin Role = "admin"
)

// Capability names a permission granted to one or more roles.
type Capability string

const (
	CapViewOwnTickets   Capability = "tickets.view_own"
	CapViewAllTickets   Capability = "tickets.view_all"
	CapCreateTicket     Capability = "tickets.create"
	CapComment          Capability = "tickets.comment"
	CapCommentInternal  Capability = "tickets.comment_internal"
	CapViewInternal     Capability = "tickets.view_internal"
	CapChangeStatus     Capability = "tickets.change_status"
	CapTriage           Capability = "tickets.triage"
	CapVote             Capability = "tickets.vote"
	CapManageCategories Capability = "categories.manage"
	CapManageUsers      Capability = "users.manage"
	CapReviewUpgrades   Capability = "upgrades.review"
)

var capabilities = map[Role]map[Capability]struct{}{
	RoleUser: capSet(
		CapViewOwnTickets, CapCreateTicket, CapComment, CapVote,
	),
	RoleAgent: capSet(
		CapViewOwnTickets, CapViewAllTickets, CapCreateTicket, CapComment, CapCommentInternal,
		CapViewInternal, CapChangeStatus, CapTriage, CapVote,
	),
	RoleAdmin: capSet(
		CapViewOwnTickets, CapViewAllTickets, CapCreateTicket, CapComment, CapCommentInternal,
		CapViewInternal, CapChangeStatus, CapTriage, CapVote, CapManageCategories, CapManageUsers,
		CapReviewUpgrades,
	),
}

func capSet(caps ...Capability) map[Capability]struct{} {
	set := make(map[Capability]struct{}, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := capabilities[r]
	return ok
}

// Can reports whether the role carries the capability.
func (r Role) Can(c Capability) bool {
	_, ok := capabilities[r][c]
	return ok
}

// UpgradeTarget returns the only role r may request, or false when r cannot request an upgrade.
func (r Role) UpgradeTarget() (Role, bool) {
	switch r {
	case RoleUser:
		return RoleAgent, true
	case RoleAgent:
		return RoleAdmin, true
	default:
		return "", false
	}
}

// ParseRole validates a raw role string.
func ParseRole(raw string) (Role, bool) {
	role := Role(raw)
	return role, role.Valid()
}
