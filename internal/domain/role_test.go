package domain

import "testing"

func TestRoleCapabilities(t *testing.T) {
	tests := []struct {
		role Role
		cap  Capability
		want bool
	}{
		{RoleUser, CapViewOwnTickets, true},
		{RoleUser, CapViewAllTickets, false},
		{RoleUser, CapChangeStatus, false},
		{RoleUser, CapCommentInternal, false},
		{RoleAgent, CapViewAllTickets, true},
		{RoleAgent, CapChangeStatus, true},
		{RoleAgent, CapManageCategories, false},
		{RoleAgent, CapReviewUpgrades, false},
		{RoleAdmin, CapManageUsers, true},
		{RoleAdmin, CapReviewUpgrades, true},
		{Role("root"), CapViewOwnTickets, false},
	}
	for _, tt := range tests {
		if got := tt.role.Can(tt.cap); got != tt.want {
			t.Fatalf("%s.Can(%s) = %v, want %v", tt.role, tt.cap, got, tt.want)
		}
	}
}

func TestUpgradeTarget(t *testing.T) {
	if target, ok := RoleUser.UpgradeTarget(); !ok || target != RoleAgent {
		t.Fatalf("user target = %s %v, want agent", target, ok)
	}
	if target, ok := RoleAgent.UpgradeTarget(); !ok || target != RoleAdmin {
		t.Fatalf("agent target = %s %v, want admin", target, ok)
	}
	if _, ok := RoleAdmin.UpgradeTarget(); ok {
		t.Fatalf("admin has an upgrade target")
	}
}

func TestParseRole(t *testing.T) {
	if _, ok := ParseRole("agent"); !ok {
		t.Fatalf("ParseRole(agent) rejected")
	}
	for _, raw := range []string{"", "Admin", "superuser"} {
		if _, ok := ParseRole(raw); ok {
			t.Fatalf("ParseRole(%q) accepted", raw)
		}
	}
}

func TestTicketNumberAndVotes(t *testing.T) {
	ticket := Ticket{Number: 42, Upvotes: []string{"a"}, Downvotes: []string{"b"}}
	if got := ticket.TicketNumber(); got != "QD-000042" {
		t.Fatalf("TicketNumber() = %s, want QD-000042", got)
	}
	if got := ticket.UserVote("a"); got != VoteUp {
		t.Fatalf("UserVote(a) = %q, want up", got)
	}
	if got := ticket.UserVote("b"); got != VoteDown {
		t.Fatalf("UserVote(b) = %q, want down", got)
	}
	if got := ticket.UserVote("c"); got != "" {
		t.Fatalf("UserVote(c) = %q, want none", got)
	}
	if TicketPriorityUrgent.Rank() <= TicketPriorityHigh.Rank() || TicketPriority("x").Valid() {
		t.Fatalf("priority ranks out of order")
	}
}
