package domain

import "time"

// User is any account: requesters, agents and administrators share one table.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserRef is the populated projection of a user embedded in other resources.
type UserRef struct {
	ID    string
	Name  string
	Email string
}

// Ref returns the populated projection of u.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
}
