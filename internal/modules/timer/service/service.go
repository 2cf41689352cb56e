package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/reshetovitsme/squad-bot/internal/modules/timer/domain"
	timerRepo "github.com/reshetovitsme/squad-bot/internal/modules/timer/repository"
	"github.com/reshetovitsme/squad-bot/internal/platform"
	"github.com/reshetovitsme/squad-bot/internal/shared/config"
	"github.com/reshetovitsme/squad-bot/internal/shared/errors"
	"github.com/reshetovitsme/squad-bot/internal/shared/metrics"
	"github.com/samber/oops"
)

const (
	pruneInterval = time.Minute

	// maxCompletionAttempts bounds how often the completion message is re-sent
	maxCompletionAttempts = 5
)

// ScheduleRequest asks for a countdown of Days/Hours/Minutes from now
type ScheduleRequest struct {
	Days            int
	Hours           int
	Minutes         int
	Description     string
	OwnerID         string
	OwnerName       string
	OwnerAvatar     string
	SourceChannelID string
}

// Duration is the requested countdown length
func (r ScheduleRequest) Duration() time.Duration {
	return time.Duration(r.Days)*24*time.Hour +
		time.Duration(r.Hours)*time.Hour +
		time.Duration(r.Minutes)*time.Minute
}

// ScheduleResult is returned once the countdown message is posted
type ScheduleResult struct {
	Timer            domain.CountdownTimer
	DisplayChannelID string
}

// Service schedules countdown timers and runs one render loop per timer
type Service struct {
	cfg      *config.Config
	repo     timerRepo.Repository
	platform platform.Client
	metrics  *metrics.Metrics

	now   func() time.Time
	after func(time.Duration) <-chan time.Time

	// completions counts completion edit attempts per timer
	completionsMu sync.Mutex
	completions   map[string]int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new timer service
func New(cfg *config.Config, repo timerRepo.Repository, client platform.Client, m *metrics.Metrics) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		cfg:      cfg,
		repo:     repo,
		platform: client,
		metrics:  m,
		now:      time.Now,
		after:    time.After,

		completions: make(map[string]int),

		ctx:    ctx,
		cancel: cancel,
	}
}

// SetClock replaces the time sources, for tests
func (s *Service) SetClock(now func() time.Time, after func(time.Duration) <-chan time.Time) {
	s.now = now
	s.after = after
}

// Start runs the janitor that forgets finished timers after the retention period
func (s *Service) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(pruneInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.Prune()
			}
		}
	}()
}

// Stop ends every render loop. Used on process shutdown only.
func (s *Service) Stop() {
	s.cancel()
	s.wg.Wait()
}

// Prune drops timers that finished more than the retention period ago
func (s *Service) Prune() int {
	n := s.repo.Prune(s.now().Add(-s.cfg.TimerRetention))
	if n > 0 {
		slog.Debug("Pruned finished timers", "count", n)
	}
	return n
}

// Timers returns a snapshot of the known timers, newest first
func (s *Service) Timers() []domain.CountdownTimer {
	return s.repo.All()
}

// Get returns one timer by id
func (s *Service) Get(timerID string) (domain.CountdownTimer, bool) {
	return s.repo.Get(timerID)
}

// Schedule validates the request, posts the countdown and starts its render loop
func (s *Service) Schedule(ctx context.Context, req ScheduleRequest) (*ScheduleResult, error) {
	timerChannelID, err := config.ResolveID("TIMER_CHANNEL", s.cfg.TimerChannelID)
	if err != nil {
		return nil, err
	}
	displayChannelID, err := config.ResolveID("TIMER_CHANNEL_DISPLAY", s.cfg.TimerDisplayChannelID)
	if err != nil {
		return nil, err
	}

	if req.SourceChannelID != timerChannelID {
		return nil, oops.
			With("source_channel_id", req.SourceChannelID, "user_id", req.OwnerID).
			Wrapf(errors.ErrWrongContext, "timers must be requested from the timer channel")
	}

	if req.Days < 0 || req.Hours < 0 || req.Minutes < 0 || req.Hours > 23 || req.Minutes > 59 {
		return nil, oops.
			With("days", req.Days, "hours", req.Hours, "minutes", req.Minutes).
			Wrapf(errors.ErrInvalidDuration, "duration fields out of range")
	}

	duration := req.Duration()
	if duration <= 0 {
		return nil, oops.Wrapf(errors.ErrZeroDuration, "duration must be greater than zero")
	}

	now := s.now()
	timer := domain.CountdownTimer{
		ID:          uuid.NewString(),
		Target:      now.Add(duration).Unix(),
		OwnerID:     req.OwnerID,
		OwnerName:   req.OwnerName,
		OwnerAvatar: req.OwnerAvatar,
		Description: strings.TrimSpace(req.Description),
		State:       domain.TimerStateRunning,
		CreatedAt:   now,
	}

	payload, err := RunningPayload(timer, now)
	if err != nil {
		return nil, err
	}

	ref, err := s.platform.SendMessage(ctx, displayChannelID, payload)
	if err != nil {
		return nil, oops.With("channel_id", displayChannelID).Wrapf(err, "posting countdown")
	}
	timer.Message = ref

	if !s.repo.Insert(timer) {
		return nil, oops.With("timer_id", timer.ID).Wrapf(errors.ErrFatal, "duplicate timer id")
	}
	s.metrics.TimerScheduled()

	s.wg.Add(1)
	go s.run(timer.ID)

	slog.Info("Timer scheduled", "timer_id", timer.ID, "owner_id", timer.OwnerID, "target", timer.TargetTime(), "message_id", ref.MessageID)

	return &ScheduleResult{Timer: timer, DisplayChannelID: displayChannelID}, nil
}

func (s *Service) run(timerID string) {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.after(s.cfg.RenderInterval):
		}

		if done := s.tick(s.ctx, timerID); done {
			return
		}
	}
}

// tick performs one render iteration and reports whether the loop should stop
func (s *Service) tick(ctx context.Context, timerID string) (done bool) {
	defer func() {
		if r := recover(); r != nil {
			s.fail(timerID, fmt.Sprintf("panic: %v", r))
			done = true
		}
	}()

	timer, ok := s.repo.Get(timerID)
	if !ok || timer.Terminal() {
		return true
	}
	if timer.Message.MessageID == "" {
		s.fail(timerID, "timer has no display message")
		return true
	}

	now := s.now()
	if timer.Done(now) {
		return s.complete(ctx, timer, now)
	}

	payload, err := RunningPayload(timer, now)
	if err != nil {
		s.fail(timerID, err.Error())
		return true
	}

	if err := s.platform.EditMessage(ctx, timer.Message, payload); err != nil {
		s.metrics.RenderFailed()
		slog.Warn("Failed to update countdown", "timer_id", timerID, "message_id", timer.Message.MessageID, "error", err)
	}
	return false
}

// complete shows the completion message and reports whether the loop is done.
// A failed edit is retried on the next tick, up to maxCompletionAttempts. The
// owner is notified once, on the first attempt.
func (s *Service) complete(ctx context.Context, timer domain.CountdownTimer, now time.Time) bool {
	payload, err := CompletedPayload(timer)
	if err != nil {
		s.fail(timer.ID, err.Error())
		return true
	}

	attempt := s.completionAttempt(timer.ID)
	if attempt == 1 {
		if err := s.platform.SendDirect(ctx, timer.OwnerID, fmt.Sprintf(completedDMMessage, timer.Message.URL)); err != nil {
			slog.Warn("Could not notify timer owner", "timer_id", timer.ID, "owner_id", timer.OwnerID, "error", err)
		}
	}

	if err := s.platform.EditMessage(ctx, timer.Message, payload); err != nil {
		s.metrics.RenderFailed()
		if attempt < maxCompletionAttempts {
			slog.Warn("Failed to show timer completion", "timer_id", timer.ID, "attempt", attempt, "error", err)
			return false
		}
		slog.Error("Giving up on timer completion message", "timer_id", timer.ID, "attempts", attempt, "error", err)
	}

	s.forgetCompletion(timer.ID)
	if _, ok := s.repo.Finish(timer.ID, domain.TimerStateCompleted, "", now); !ok {
		return true
	}
	s.metrics.TimerFinished(domain.TimerStateCompleted.String())
	slog.Info("Timer completed", "timer_id", timer.ID, "owner_id", timer.OwnerID)
	return true
}

func (s *Service) completionAttempt(timerID string) int {
	s.completionsMu.Lock()
	defer s.completionsMu.Unlock()
	s.completions[timerID]++
	return s.completions[timerID]
}

func (s *Service) forgetCompletion(timerID string) {
	s.completionsMu.Lock()
	defer s.completionsMu.Unlock()
	delete(s.completions, timerID)
}

// fail marks the timer as abandoned. The loop is never restarted.
func (s *Service) fail(timerID, reason string) {
	s.forgetCompletion(timerID)
	if _, ok := s.repo.Finish(timerID, domain.TimerStateFailed, reason, s.now()); !ok {
		return
	}
	s.metrics.TimerFinished(domain.TimerStateFailed.String())
	slog.Error("Countdown abandoned", "timer_id", timerID, "reason", reason)
}
