package domain

// Identity is the authenticated caller handed explicitly to every service call.
type Identity struct {
	ID   string
	Role Role
}

// IdentityOf builds the identity for a loaded user.
func IdentityOf(user *User) Identity {
	return Identity{ID: user.ID, Role: user.Role}
}

// Can reports whether the identity's role carries the capability.
func (i Identity) Can(c Capability) bool {
	return i.Role.Can(c)
}

// IsStaff reports whether the identity sees the whole ticket queue.
func (i Identity) IsStaff() bool {
	return i.Can(CapViewAllTickets)
}
