package models

import "time"

// Event is an audit-log entry for a notable action in the system.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"` // e.g. "user.login", "video.upload"
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	VideoID   *string   `json:"videoId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
