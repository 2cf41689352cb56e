package domain

import "time"

// TrackedChannel is an ephemeral voice channel created by the bot
type TrackedChannel struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatorID string    `json:"creator_id"`
	CreatedAt time.Time `json:"created_at"`
}
