package entity

import (
	"time"
)

// User owns projects. Passwords are stored as bcrypt hashes in Password.
//
// ProjectIDs is a back-reference kept for convenience; Project.CreatorID is
// the source of truth for ownership.
type User struct {
	ID         string
	Email      string
	Password   string
	Name       string
	ProjectIDs []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Summary returns the minimal creator shape embedded in project payloads.
func (u *User) Summary() *CreatorSummary {
	return &CreatorSummary{ID: u.ID, Name: u.Name}
}
