package entity

import (
	"strings"
	"time"
)

// User is an account record created from an external Google identity.
// Authentication happens client-side against Google; this record stores the
// profile data and anchors invoice ownership.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	GoogleID  string    `json:"google_id,omitempty"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Picture   string    `json:"picture,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullName joins first and last name, trimming the separator when either is empty.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// SetName splits a display name into first and last name parts.
func (u *User) SetName(name string) {
	parts := strings.SplitN(strings.TrimSpace(name), " ", 2)
	u.FirstName = parts[0]
	if len(parts) > 1 {
		u.LastName = parts[1]
	} else {
		u.LastName = ""
	}
}
