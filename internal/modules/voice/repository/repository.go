package repository

import (
	"github.com/reshetovitsme/squad-bot/internal/modules/voice/domain"
)

// Repository tracks the live ephemeral channels.
// Each method is atomic with respect to the others, so callers never need
// to hold a lock across a platform call to keep check-then-act sequences safe.
type Repository interface {
	// Insert adds the channel unless its id is already tracked.
	Insert(channel domain.TrackedChannel) bool
	Get(channelID string) (domain.TrackedChannel, bool)
	Contains(channelID string) bool
	// Take removes and returns the channel. Only one caller can win a Take
	// for a given id.
	Take(channelID string) (domain.TrackedChannel, bool)
	All() []domain.TrackedChannel
	Len() int
}
