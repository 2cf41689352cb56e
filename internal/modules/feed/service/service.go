package service

import (
	"fmt"
	"html"
	"time"

	"github.com/gorilla/feeds"
	"github.com/reshetovitsme/squad-bot/internal/modules/timer/domain"
	timerService "github.com/reshetovitsme/squad-bot/internal/modules/timer/service"
	"github.com/samber/lo"
)

const (
	maxItems       = 50
	maxTitleLength = 100
)

// TimerSource lists the known timers, newest first
type TimerSource interface {
	Timers() []domain.CountdownTimer
}

// Service builds the RSS feed of recent countdown timers
type Service struct {
	timers TimerSource
	now    func() time.Time
}

// New creates a new feed service
func New(timers TimerSource) *Service {
	return &Service{timers: timers, now: time.Now}
}

// GenerateFeed renders the most recent timers as a feed rooted at baseURL
func (s *Service) GenerateFeed(baseURL string) *feeds.Feed {
	timers := s.timers.Timers()
	if len(timers) > maxItems {
		timers = timers[:maxItems]
	}

	feed := &feeds.Feed{
		Title:       "Countdown Timers",
		Link:        &feeds.Link{Href: fmt.Sprintf("%s/timers/feed", baseURL)},
		Description: "Countdown timers scheduled on the server",
		Created:     s.now(),
	}
	if len(timers) > 0 {
		feed.Updated = updatedAt(lo.MaxBy(timers, func(a, b domain.CountdownTimer) bool {
			return updatedAt(a).After(updatedAt(b))
		}))
	}

	feed.Items = lo.Map(timers, func(t domain.CountdownTimer, _ int) *feeds.Item {
		return s.timerToFeedItem(t)
	})
	return feed
}

func (s *Service) timerToFeedItem(t domain.CountdownTimer) *feeds.Item {
	title := t.Description
	if title == "" {
		title = timerService.NoDescription
	}

	status := t.State.String()
	switch t.State {
	case domain.TimerStateRunning:
		status = fmt.Sprintf("running, %s left", timerService.FormatHMS(t.Remaining(s.now())))
	case domain.TimerStateFailed:
		status = fmt.Sprintf("failed: %s", t.FailureReason)
	}

	description := fmt.Sprintf("Ends at %s (%s)", t.TargetTime().Format(timerService.EndsAtLayout), status)

	return &feeds.Item{
		Title:       truncate(title, maxTitleLength),
		Link:        &feeds.Link{Href: t.Message.URL},
		Description: description,
		Content:     fmt.Sprintf("<p><strong>%s</strong></p><p>%s</p>", html.EscapeString(title), html.EscapeString(description)),
		Author:      &feeds.Author{Name: t.OwnerName},
		Created:     t.CreatedAt,
		Updated:     updatedAt(t),
		Id:          t.ID,
	}
}

func updatedAt(t domain.CountdownTimer) time.Time {
	if t.FinishedAt.IsZero() {
		return t.CreatedAt
	}
	return t.FinishedAt
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
