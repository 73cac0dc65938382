package models

import "time"

// Roles an account can hold.
const (
	RoleChild  = "child"
	RoleParent = "parent"
	RoleAdmin  = "admin"
)

// Account statuses.
const (
	StatusPending = "pending"
	StatusActive  = "active"
)

// User represents an account in the system. Children may have no email,
// and pending accounts may have no password until activation.
type User struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email,omitempty"`
	PasswordHash  string    `json:"-"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Role          string    `json:"role"`
	Status        string    `json:"status"`
	GroupClass    string    `json:"group_class,omitempty"` // only meaningful for children
	OAuthProvider string    `json:"-"`
	OAuthSubject  string    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsActive reports whether the account may sign in through its normal path
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// FullName joins first and last name for display
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Session represents an authenticated session. Role is recorded at login
// so a handler never re-derives it from mutable account state.
type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
