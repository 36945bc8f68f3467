package models

import "time"

// PresenceEntry is one connected viewer of a stream. Presence is ephemeral:
// its lifecycle is bound to the realtime connection and it is never persisted.
// The derived count is cosmetic only and must not drive billing or access
// control.
type PresenceEntry struct {
	UserID   string    `json:"user_id"`
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joined_at"`
}
