package models

import "time"

// ChildCredential holds the username/PIN login material for a child.
// Usernames are stored lowercase; lookups lowercase their input.
type ChildCredential struct {
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	PinHash   string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// ParentChildLink ties a parent account to a child it may view
type ParentChildLink struct {
	ID        int64     `json:"id"`
	ParentID  int64     `json:"parent_id"`
	ChildID   int64     `json:"child_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Link request statuses.
const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
)

// LinkRequest is a parent's signup request awaiting admin review.
// ChildCode is a free-text hint for the admin, not a verified reference.
type LinkRequest struct {
	ID         int64      `json:"id"`
	ParentID   int64      `json:"parent_id"`
	ChildCode  string     `json:"child_code,omitempty"`
	Status     string     `json:"status"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`

	// Populated via JOIN for admin listings
	ParentEmail string `json:"parent_email,omitempty"`
	ParentName  string `json:"parent_name,omitempty"`
}

// IsReviewed reports whether the request reached a terminal state
func (r *LinkRequest) IsReviewed() bool {
	return r.Status != RequestPending
}
