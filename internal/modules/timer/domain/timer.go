package domain

import (
	"time"

	"github.com/reshetovitsme/squad-bot/internal/platform"
)

// CountdownTimer is a scheduled countdown rendered into a posted message
type CountdownTimer struct {
	ID          string              `json:"id"`
	Target      int64               `json:"target"`
	OwnerID     string              `json:"owner_id"`
	OwnerName   string              `json:"owner_name"`
	OwnerAvatar string              `json:"-"`
	Description string              `json:"description,omitempty"`
	Message     platform.MessageRef `json:"message"`
	State       TimerState          `json:"state"`
	CreatedAt   time.Time           `json:"created_at"`
	FinishedAt  time.Time           `json:"finished_at,omitempty"`
	// FailureReason is set when State is failed
	FailureReason string `json:"failure_reason,omitempty"`
}

// TargetTime returns the expiry as a UTC time
func (t CountdownTimer) TargetTime() time.Time {
	return time.Unix(t.Target, 0).UTC()
}

// Remaining is the whole seconds left at now, which may be negative
func (t CountdownTimer) Remaining(now time.Time) int64 {
	return t.Target - now.Unix()
}

// Done uses >= so a timer expiring exactly on a poll completes on that poll
func (t CountdownTimer) Done(now time.Time) bool {
	return now.Unix() >= t.Target
}

// Terminal reports whether the timer can no longer change
func (t CountdownTimer) Terminal() bool {
	return t.State == TimerStateCompleted || t.State == TimerStateFailed
}
