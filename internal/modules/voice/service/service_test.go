package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	voiceRepo "github.com/reshetovitsme/squad-bot/internal/modules/voice/repository"
	"github.com/reshetovitsme/squad-bot/internal/platform"
	"github.com/reshetovitsme/squad-bot/internal/platform/platformtest"
	"github.com/reshetovitsme/squad-bot/internal/shared/config"
	"github.com/reshetovitsme/squad-bot/internal/shared/errors"
	"github.com/reshetovitsme/squad-bot/internal/shared/metrics"
	"github.com/samber/lo"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	categoryID = "100"
	lfgID      = "200"
	lobbyID    = "300"
	stagingID  = "400"
)

type fixture struct {
	svc    *Service
	repo   *voiceRepo.MemoryStorage
	fake   *platformtest.Fake
	settle chan time.Time
}

func newFixture(t *testing.T, mutate ...func(*config.Config)) *fixture {
	t.Helper()

	cfg := &config.Config{
		CategoryID:   categoryID,
		LFGChannelID: lfgID,
		SettleDelay:  time.Second,
	}
	for _, m := range mutate {
		m(cfg)
	}

	fake := platformtest.New()
	fake.AddChannel(platform.Channel{ID: categoryID, Name: "Squads", Kind: platform.ChannelKindCategory})
	fake.AddChannel(platform.Channel{ID: lobbyID, Name: "Lobby", Kind: platform.ChannelKindVoice})
	fake.AddChannel(platform.Channel{ID: stagingID, Name: "Embarkation Deck", Kind: platform.ChannelKindVoice})

	repo := voiceRepo.NewMemoryStorage()
	svc := New(cfg, repo, fake, metrics.New(prometheus.NewRegistry()))

	settle := make(chan time.Time)
	svc.SetClock(time.Now, func(time.Duration) <-chan time.Time { return settle })
	t.Cleanup(svc.Stop)

	return &fixture{svc: svc, repo: repo, fake: fake, settle: settle}
}

func request(mutate ...func(*CreateRequest)) CreateRequest {
	req := CreateRequest{
		Name:            "Squad A",
		RequesterID:     "u1",
		SourceChannelID: lfgID,
	}
	for _, m := range mutate {
		m(&req)
	}
	return req
}

func TestCreate_MovesConnectedRequester(t *testing.T) {
	f := newFixture(t)
	f.fake.AddMember(platform.Member{ID: "u1", DisplayName: "Ana"}, lobbyID)

	res, err := f.svc.Create(context.Background(), request(func(r *CreateRequest) {
		r.Capacity = lo.ToPtr(5)
	}))
	require.NoError(t, err)

	require.Len(t, f.fake.Created, 1)
	assert.Equal(t, platform.CreateVoiceChannelParams{Name: "Squad A", ParentID: categoryID, UserLimit: 5}, f.fake.Created[0])
	assert.Equal(t, 1, res.Moved)
	assert.Equal(t, 1, res.Requested)
	assert.Zero(t, res.Failed)

	current, ok := f.fake.VoiceChannelOf(context.Background(), "u1")
	require.True(t, ok)
	assert.Equal(t, res.Channel.ID, current)

	tracked, ok := f.repo.Get(res.Channel.ID)
	require.True(t, ok)
	assert.Equal(t, "u1", tracked.CreatorID)
	assert.Equal(t, "Squad A", tracked.Name)
}

func TestCreate_UnlimitedCapacityWhenUnset(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Create(context.Background(), request())
	require.NoError(t, err)

	assert.Zero(t, f.fake.Created[0].UserLimit)
	assert.Zero(t, res.Requested, "requester is not in voice")
	assert.True(t, f.repo.Contains(res.Channel.ID))
}

func TestCreate_RejectsCapacityOutOfRange(t *testing.T) {
	for _, capacity := range []int{-5, 0, 100, 250} {
		f := newFixture(t)

		_, err := f.svc.Create(context.Background(), request(func(r *CreateRequest) {
			r.Capacity = lo.ToPtr(capacity)
		}))
		require.ErrorIs(t, err, errors.ErrInvalidCapacity, "capacity %d", capacity)
		assert.Zero(t, f.fake.MutationCount(), "capacity %d", capacity)
		assert.Zero(t, f.repo.Len())
	}
}

func TestCreate_AcceptsCapacityBounds(t *testing.T) {
	for _, capacity := range []int{1, 99} {
		f := newFixture(t)

		_, err := f.svc.Create(context.Background(), request(func(r *CreateRequest) {
			r.Capacity = lo.ToPtr(capacity)
		}))
		require.NoError(t, err)
		assert.Equal(t, capacity, f.fake.Created[0].UserLimit)
	}
}

func TestCreate_RejectsWrongContext(t *testing.T) {
	f := newFixture(t)
	f.fake.AddMember(platform.Member{ID: "u1"}, lobbyID)

	_, err := f.svc.Create(context.Background(), request(func(r *CreateRequest) {
		r.SourceChannelID = "999"
	}))
	require.ErrorIs(t, err, errors.ErrWrongContext)
	assert.Zero(t, f.fake.MutationCount())
	assert.Empty(t, f.fake.Moves)
}

func TestCreate_RejectsInvalidName(t *testing.T) {
	f := newFixture(t)

	for _, name := range []string{"", "   ", string(make([]rune, 101))} {
		_, err := f.svc.Create(context.Background(), request(func(r *CreateRequest) {
			r.Name = name
		}))
		require.ErrorIs(t, err, errors.ErrInvalidName)
	}
	assert.Zero(t, f.fake.MutationCount())
}

func TestCreate_Misconfigured(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"missing category", func(c *config.Config) { c.CategoryID = "" }},
		{"missing lfg channel", func(c *config.Config) { c.LFGChannelID = "" }},
		{"non-numeric category", func(c *config.Config) { c.CategoryID = "squads" }},
		{"category is not a category", func(c *config.Config) { c.CategoryID = lobbyID }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.mutate)

			_, err := f.svc.Create(context.Background(), request())
			require.ErrorIs(t, err, errors.ErrMisconfigured)
			assert.Equal(t, errors.ErrorKindMisconfigured, errors.Kind(err))
			assert.Zero(t, f.fake.MutationCount())
		})
	}
}

func TestCreate_CategoryNotFound(t *testing.T) {
	f := newFixture(t, func(c *config.Config) { c.CategoryID = "555" })

	_, err := f.svc.Create(context.Background(), request())
	require.ErrorIs(t, err, errors.ErrNotFound)
	assert.Zero(t, f.fake.MutationCount())
}

func TestCreate_PlatformCreateFailure(t *testing.T) {
	f := newFixture(t)
	f.fake.CreateErr = oops.Wrap(errors.ErrTransientPlatform)

	_, err := f.svc.Create(context.Background(), request())
	require.ErrorIs(t, err, errors.ErrTransientPlatform)
	assert.Zero(t, f.repo.Len())
}

func TestCreate_TeammateMoveFailureIsDegradedSuccess(t *testing.T) {
	f := newFixture(t)
	f.fake.AddMember(platform.Member{ID: "u1"}, lobbyID)
	f.fake.AddMember(platform.Member{ID: "u2"}, lobbyID)
	f.fake.AddMember(platform.Member{ID: "u3"}, lobbyID)
	f.fake.MoveErr["u2"] = oops.Wrap(errors.ErrTransientPlatform)

	res, err := f.svc.Create(context.Background(), request(func(r *CreateRequest) {
		r.TeammateIDs = []string{"u2", "u3"}
	}))
	require.NoError(t, err)

	assert.Equal(t, 3, res.Requested)
	assert.Equal(t, 2, res.Moved)
	assert.Equal(t, 1, res.Failed)
	assert.ElementsMatch(t, []string{"u1", "u3"}, f.fake.Moves)
}

func TestCreate_SkipsInvalidTeammates(t *testing.T) {
	f := newFixture(t)
	f.fake.AddMember(platform.Member{ID: "u1"}, lobbyID)
	f.fake.AddMember(platform.Member{ID: "u2"}, "")

	res, err := f.svc.Create(context.Background(), request(func(r *CreateRequest) {
		// self, unknown, not connected, duplicate
		r.TeammateIDs = []string{"u1", "ghost", "u2", "u2"}
	}))
	require.NoError(t, err)

	assert.Equal(t, 1, res.Requested)
	assert.Equal(t, []string{"u1"}, f.fake.Moves)
}

func TestCreate_StagingChannelFilter(t *testing.T) {
	f := newFixture(t, func(c *config.Config) { c.StagingVoiceID = stagingID })
	f.fake.AddMember(platform.Member{ID: "u1"}, stagingID)
	f.fake.AddMember(platform.Member{ID: "u2"}, stagingID)
	f.fake.AddMember(platform.Member{ID: "u3"}, lobbyID)

	res, err := f.svc.Create(context.Background(), request(func(r *CreateRequest) {
		r.TeammateIDs = []string{"u2", "u3"}
	}))
	require.NoError(t, err)

	assert.Equal(t, 2, res.Moved)
	assert.ElementsMatch(t, []string{"u1", "u2"}, f.fake.Moves)
}

func TestSweep_DeletesEmptyChannelOnce(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.Create(context.Background(), request())
	require.NoError(t, err)

	deleted, err := f.svc.Sweep(context.Background(), res.Channel.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = f.svc.Sweep(context.Background(), res.Channel.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	assert.Equal(t, []string{res.Channel.ID}, f.fake.DeletedIDs())
	assert.False(t, f.repo.Contains(res.Channel.ID))
}

func TestSweep_KeepsOccupiedChannel(t *testing.T) {
	f := newFixture(t)
	f.fake.AddMember(platform.Member{ID: "u1"}, lobbyID)
	res, err := f.svc.Create(context.Background(), request())
	require.NoError(t, err)

	deleted, err := f.svc.Sweep(context.Background(), res.Channel.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.True(t, f.repo.Contains(res.Channel.ID))
}

func TestSweep_IgnoresUntrackedChannel(t *testing.T) {
	f := newFixture(t)

	deleted, err := f.svc.Sweep(context.Background(), lobbyID)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.True(t, f.fake.HasChannel(lobbyID))
}

func TestSweep_RestoresEntryWhenDeleteFails(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.Create(context.Background(), request())
	require.NoError(t, err)
	f.fake.DeleteErr = oops.Wrap(errors.ErrTransientPlatform)

	deleted, err := f.svc.Sweep(context.Background(), res.Channel.ID)
	require.ErrorIs(t, err, errors.ErrTransientPlatform)
	assert.False(t, deleted)
	assert.True(t, f.repo.Contains(res.Channel.ID))

	f.fake.DeleteErr = nil
	deleted, err = f.svc.Sweep(context.Background(), res.Channel.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestOnMemberLeft_DeletesAfterSettleDelay(t *testing.T) {
	f := newFixture(t)
	f.fake.AddMember(platform.Member{ID: "u1"}, lobbyID)
	res, err := f.svc.Create(context.Background(), request())
	require.NoError(t, err)

	f.fake.Disconnect("u1")
	f.svc.OnMemberLeft(res.Channel.ID)
	assert.True(t, f.fake.HasChannel(res.Channel.ID), "nothing happens before the delay elapses")

	f.settle <- time.Now()
	require.Eventually(t, func() bool {
		return !f.fake.HasChannel(res.Channel.ID) && !f.repo.Contains(res.Channel.ID)
	}, time.Second, 5*time.Millisecond)
}

func TestOnMemberLeft_RejoinWithinDelayKeepsChannel(t *testing.T) {
	f := newFixture(t)
	f.fake.AddMember(platform.Member{ID: "u1"}, lobbyID)
	res, err := f.svc.Create(context.Background(), request())
	require.NoError(t, err)

	f.fake.Disconnect("u1")
	f.svc.OnMemberLeft(res.Channel.ID)
	f.fake.Connect("u1", res.Channel.ID)

	f.settle <- time.Now()
	f.svc.Stop()

	assert.True(t, f.fake.HasChannel(res.Channel.ID))
	assert.True(t, f.repo.Contains(res.Channel.ID))
	assert.Empty(t, f.fake.DeletedIDs())
}

func TestOnMemberLeft_ConcurrentLeavesDeleteOnce(t *testing.T) {
	f := newFixture(t)
	f.fake.AddMember(platform.Member{ID: "u1"}, lobbyID)
	f.fake.AddMember(platform.Member{ID: "u2"}, lobbyID)
	res, err := f.svc.Create(context.Background(), request(func(r *CreateRequest) {
		r.TeammateIDs = []string{"u2"}
	}))
	require.NoError(t, err)

	f.fake.Disconnect("u1")
	f.svc.OnMemberLeft(res.Channel.ID)
	f.fake.Disconnect("u2")
	f.svc.OnMemberLeft(res.Channel.ID)

	f.settle <- time.Now()
	f.settle <- time.Now()
	f.svc.Stop()

	assert.Equal(t, []string{res.Channel.ID}, f.fake.DeletedIDs())
	assert.Zero(t, f.repo.Len())
}

func TestOnMemberLeft_IgnoresUntrackedChannel(t *testing.T) {
	f := newFixture(t)

	f.svc.OnMemberLeft(lobbyID)
	f.svc.Stop()

	assert.True(t, f.fake.HasChannel(lobbyID))
}

func TestRegistryOnlyHoldsLiveChannels(t *testing.T) {
	f := newFixture(t)
	f.fake.AddMember(platform.Member{ID: "u1"}, lobbyID)

	var created []string
	for i := 0; i < 5; i++ {
		res, err := f.svc.Create(context.Background(), request())
		require.NoError(t, err)
		created = append(created, res.Channel.ID)
	}
	// u1 ends up in the last channel; the others are empty
	for _, id := range created {
		_, err := f.svc.Sweep(context.Background(), id)
		require.NoError(t, err)
	}

	deleted := f.fake.DeletedIDs()
	for _, ch := range f.svc.Tracked() {
		assert.True(t, f.fake.HasChannel(ch.ID))
		assert.NotContains(t, deleted, ch.ID)
	}
	assert.Len(t, f.svc.Tracked(), 1)
	assert.Len(t, deleted, 4)
}
