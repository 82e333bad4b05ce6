package models

import "time"

// User represents a registered account.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Never expose this to the client
	Role         string     `json:"role,omitempty"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	LastLoginIP  string     `json:"lastLoginIp,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}
