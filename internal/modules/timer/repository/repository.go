package repository

import (
	"time"

	"github.com/reshetovitsme/squad-bot/internal/modules/timer/domain"
)

// Repository owns the countdown timers. Methods return copies; the only way
// to change a timer is through Finish.
type Repository interface {
	Insert(timer domain.CountdownTimer) bool
	Get(timerID string) (domain.CountdownTimer, bool)
	// Finish moves a running timer to a terminal state. It returns false if the
	// timer is unknown or already terminal, so each timer finishes exactly once.
	Finish(timerID string, state domain.TimerState, reason string, at time.Time) (domain.CountdownTimer, bool)
	All() []domain.CountdownTimer
	// Prune drops terminal timers that finished before cutoff
	Prune(cutoff time.Time) int
}
