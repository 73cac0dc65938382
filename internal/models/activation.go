package models

import "time"

// ActivationCode lets a pre-created child account claim a password.
// Codes are single use and expire.
type ActivationCode struct {
	ID          int64      `json:"id"`
	Code        string     `json:"code"`
	ChildUserID int64      `json:"child_user_id"`
	ExpiresAt   time.Time  `json:"expires_at"`
	UsedAt      *time.Time `json:"used_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`

	// Populated via JOIN for admin listings
	ChildName string `json:"child_name,omitempty"`
}

func (c *ActivationCode) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

func (c *ActivationCode) IsUsed() bool {
	return c.UsedAt != nil
}

func (c *ActivationCode) IsValid() bool {
	return !c.IsExpired() && !c.IsUsed()
}
