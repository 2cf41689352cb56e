package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/reshetovitsme/squad-bot/internal/modules/timer/domain"
	"github.com/reshetovitsme/squad-bot/internal/platform"
	"github.com/reshetovitsme/squad-bot/internal/shared/errors"
	"github.com/samber/oops"
)

const (
	ColorRunning  = 0x3498db
	ColorComplete = 0xe74c3c

	TitleCountdown     = "⏰ Countdown Timer"
	NoDescription      = "No description provided."
	FieldEndsAt        = "Ends At (UTC)"
	FieldRemaining     = "Time Remaining"
	FieldStatus        = "Status"
	StatusComplete     = "⏰ Timer Complete!"
	EndsAtLayout       = "2006-01-02 15:04:05 UTC"
	completedDMMessage = "Your timer has completed: %s"
)

// FormatHMS renders whole seconds as HH:MM:SS. Hours are not wrapped into
// days, so two days render as 48:00:00. Negative input renders as zero.
func FormatHMS(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}

// RunningPayload renders the countdown as of now
func RunningPayload(t domain.CountdownTimer, now time.Time) (platform.Payload, error) {
	p, err := basePayload(t)
	if err != nil {
		return platform.Payload{}, err
	}
	p.Color = ColorRunning
	p.Fields = []platform.Field{
		{Name: FieldEndsAt, Value: t.TargetTime().Format(EndsAtLayout), Inline: true},
		{Name: FieldRemaining, Value: FormatHMS(t.Remaining(now)), Inline: true},
	}
	return p, nil
}

// CompletedPayload renders the terminal state
func CompletedPayload(t domain.CountdownTimer) (platform.Payload, error) {
	p, err := basePayload(t)
	if err != nil {
		return platform.Payload{}, err
	}
	p.Color = ColorComplete
	p.Fields = []platform.Field{
		{Name: FieldStatus, Value: StatusComplete, Inline: true},
	}
	return p, nil
}

func basePayload(t domain.CountdownTimer) (platform.Payload, error) {
	if t.Target <= 0 {
		return platform.Payload{}, oops.With("timer_id", t.ID, "target", t.Target).Wrapf(errors.ErrFatal, "timer has no target")
	}
	if !t.State.IsValid() {
		return platform.Payload{}, oops.With("timer_id", t.ID, "state", t.State).Wrapf(errors.ErrFatal, "timer state is invalid")
	}

	description := strings.TrimSpace(t.Description)
	if description == "" {
		description = NoDescription
	}

	return platform.Payload{
		Title:       TitleCountdown,
		Description: description,
		Footer:      fmt.Sprintf("Created by %s", t.OwnerName),
		FooterIcon:  t.OwnerAvatar,
	}, nil
}
