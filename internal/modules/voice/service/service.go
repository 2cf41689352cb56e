package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/reshetovitsme/squad-bot/internal/modules/voice/domain"
	voiceRepo "github.com/reshetovitsme/squad-bot/internal/modules/voice/repository"
	"github.com/reshetovitsme/squad-bot/internal/platform"
	"github.com/reshetovitsme/squad-bot/internal/shared/config"
	"github.com/reshetovitsme/squad-bot/internal/shared/errors"
	"github.com/reshetovitsme/squad-bot/internal/shared/metrics"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

const (
	MaxNameLength = 100
	MaxCapacity   = 99
	MaxTeammates  = 2
)

// CreateRequest asks for a new ephemeral voice channel
type CreateRequest struct {
	Name string
	// Capacity of nil means unlimited
	Capacity        *int
	RequesterID     string
	TeammateIDs     []string
	SourceChannelID string
}

// CreateResult reports the new channel and how the relocations went.
// Requested counts everyone the bot tried to move, Moved those that succeeded.
type CreateResult struct {
	Channel   domain.TrackedChannel
	Requested int
	Moved     int
	Failed    int
}

// Service manages the lifecycle of ephemeral voice channels
type Service struct {
	cfg      *config.Config
	repo     voiceRepo.Repository
	platform platform.Client
	metrics  *metrics.Metrics

	now   func() time.Time
	after func(time.Duration) <-chan time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new voice channel service
func New(cfg *config.Config, repo voiceRepo.Repository, client platform.Client, m *metrics.Metrics) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		cfg:      cfg,
		repo:     repo,
		platform: client,
		metrics:  m,
		now:      time.Now,
		after:    time.After,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// SetClock replaces the time sources, for tests
func (s *Service) SetClock(now func() time.Time, after func(time.Duration) <-chan time.Time) {
	s.now = now
	s.after = after
}

// Stop abandons pending settle checks and waits for them to exit
func (s *Service) Stop() {
	s.cancel()
	s.wg.Wait()
}

// Tracked returns a snapshot of the live ephemeral channels
func (s *Service) Tracked() []domain.TrackedChannel {
	return s.repo.All()
}

// Create validates the request, creates the channel, registers it and moves
// the requester and teammates into it. Nothing is mutated on the platform
// until every check has passed.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	categoryID, err := config.ResolveID("CATEGORY", s.cfg.CategoryID)
	if err != nil {
		return nil, err
	}
	lfgChannelID, err := config.ResolveID("LFG_CHANNEL", s.cfg.LFGChannelID)
	if err != nil {
		return nil, err
	}

	if req.SourceChannelID != lfgChannelID {
		return nil, oops.
			With("source_channel_id", req.SourceChannelID, "user_id", req.RequesterID).
			Wrapf(errors.ErrWrongContext, "channel requests must come from the LFG channel")
	}

	name := strings.TrimSpace(req.Name)
	if n := utf8.RuneCountInString(name); n < 1 || n > MaxNameLength {
		return nil, oops.With("length", n).Wrapf(errors.ErrInvalidName, "name must be 1-%d characters", MaxNameLength)
	}

	userLimit := 0
	if req.Capacity != nil {
		userLimit = *req.Capacity
		if userLimit < 1 || userLimit > MaxCapacity {
			return nil, oops.With("capacity", userLimit).Wrapf(errors.ErrInvalidCapacity, "capacity must be 1-%d", MaxCapacity)
		}
	}

	category, err := s.platform.Channel(ctx, categoryID)
	if err != nil {
		return nil, oops.With("category_id", categoryID).Wrapf(err, "resolving category")
	}
	if category.Kind != platform.ChannelKindCategory {
		return nil, oops.With("category_id", categoryID).Wrapf(errors.ErrMisconfigured, "CATEGORY is not a category")
	}

	teammates := s.validTeammates(ctx, req)

	created, err := s.platform.CreateVoiceChannel(ctx, platform.CreateVoiceChannelParams{
		Name:      name,
		ParentID:  category.ID,
		UserLimit: userLimit,
	})
	if err != nil {
		return nil, oops.With("name", name, "category_id", category.ID).Wrapf(err, "creating voice channel")
	}

	tracked := domain.TrackedChannel{
		ID:        created.ID,
		Name:      name,
		CreatorID: req.RequesterID,
		CreatedAt: s.now(),
	}
	if !s.repo.Insert(tracked) {
		// Platform ids are unique, so this only happens if the platform reused one
		slog.Warn("Voice channel already tracked", "channel_id", tracked.ID)
	}
	s.metrics.ChannelCreated(s.repo.Len())
	slog.Info("Created voice channel", "channel_id", tracked.ID, "name", name, "capacity", userLimit, "creator_id", req.RequesterID)

	result := &CreateResult{Channel: tracked}
	for _, userID := range append([]string{req.RequesterID}, teammates...) {
		if _, connected := s.platform.VoiceChannelOf(ctx, userID); !connected {
			continue
		}
		result.Requested++
		if err := s.platform.MoveMember(ctx, userID, tracked.ID); err != nil {
			result.Failed++
			s.metrics.MemberMoved(false)
			slog.Error("Failed to move member", "user_id", userID, "channel_id", tracked.ID, "error", err)
			continue
		}
		result.Moved++
		s.metrics.MemberMoved(true)
		slog.Info("Moved member", "user_id", userID, "channel_id", tracked.ID)
	}

	return result, nil
}

// validTeammates drops duplicates, the requester, unknown members and, when a
// staging voice channel is configured, anyone not waiting in it.
func (s *Service) validTeammates(ctx context.Context, req CreateRequest) []string {
	ids := lo.Uniq(lo.Compact(req.TeammateIDs))
	ids = lo.Without(ids, req.RequesterID)
	if len(ids) > MaxTeammates {
		ids = ids[:MaxTeammates]
	}

	staging := strings.TrimSpace(s.cfg.StagingVoiceID)
	return lo.Filter(ids, func(id string, _ int) bool {
		if _, err := s.platform.Member(ctx, id); err != nil {
			slog.Info("Teammate not found", "user_id", id)
			return false
		}
		if staging == "" {
			return true
		}
		current, ok := s.platform.VoiceChannelOf(ctx, id)
		if !ok || current != staging {
			slog.Info("Teammate not in staging channel", "user_id", id, "staging_channel_id", staging)
			return false
		}
		return true
	})
}

// OnMemberLeft reacts to a member's voice connection leaving channelID. For
// tracked channels it schedules one settle-then-sweep check.
func (s *Service) OnMemberLeft(channelID string) {
	if !s.repo.Contains(channelID) {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		select {
		case <-s.ctx.Done():
			return
		case <-s.after(s.cfg.SettleDelay):
		}

		if _, err := s.Sweep(s.ctx, channelID); err != nil {
			slog.Error("Failed to delete empty voice channel", "channel_id", channelID, "error", err)
		}
	}()
}

// Sweep deletes channelID if it is tracked and empty. It reports whether this
// call performed the deletion; a channel already removed by another sweep is
// a no-op.
func (s *Service) Sweep(ctx context.Context, channelID string) (bool, error) {
	if !s.repo.Contains(channelID) {
		return false, nil
	}

	members, err := s.platform.ChannelMembers(ctx, channelID)
	if err != nil {
		return false, oops.With("channel_id", channelID).Wrapf(err, "listing channel members")
	}
	if len(members) > 0 {
		return false, nil
	}

	tracked, ok := s.repo.Take(channelID)
	if !ok {
		return false, nil
	}

	if err := s.platform.DeleteChannel(ctx, channelID); err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			// Someone removed it by hand; the entry is stale either way
			s.metrics.ChannelDeleted(s.repo.Len())
			return true, nil
		}
		s.repo.Insert(tracked)
		return false, oops.With("channel_id", channelID).Wrapf(err, "deleting channel")
	}

	s.metrics.ChannelDeleted(s.repo.Len())
	slog.Info("Deleted empty voice channel", "channel_id", channelID, "name", tracked.Name, "age", s.now().Sub(tracked.CreatedAt).Round(time.Second))
	return true, nil
}
