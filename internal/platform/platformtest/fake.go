// Package platformtest provides an in-memory platform.Client for tests.
package platformtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/reshetovitsme/squad-bot/internal/platform"
	"github.com/reshetovitsme/squad-bot/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// Edit is a recorded EditMessage call
type Edit struct {
	Ref     platform.MessageRef
	Payload platform.Payload
}

// Fake is a thread-safe, scriptable platform.Client
type Fake struct {
	mu sync.Mutex

	channels map[string]*platform.Channel
	members  map[string]*platform.Member
	// voice maps user id to the voice channel they are connected to
	voice  map[string]string
	nextID int

	// Failure hooks; nil means success
	CreateErr  error
	DeleteErr  error
	MoveErr    map[string]error
	SendErr    error
	EditErr    error
	DirectErr  error
	MembersErr error

	Created  []platform.CreateVoiceChannelParams
	Deleted  []string
	Moves    []string
	Sent     []platform.Payload
	Edits    []Edit
	Directs  map[string][]string
	Mutating int
}

// New returns an empty Fake
func New() *Fake {
	return &Fake{
		channels: make(map[string]*platform.Channel),
		members:  make(map[string]*platform.Member),
		voice:    make(map[string]string),
		MoveErr:  make(map[string]error),
		Directs:  make(map[string][]string),
	}
}

// AddChannel seeds a channel
func (f *Fake) AddChannel(ch platform.Channel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channels[ch.ID] = &ch
}

// AddMember seeds a member, optionally connected to a voice channel
func (f *Fake) AddMember(m platform.Member, voiceChannelID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[m.ID] = &m
	if voiceChannelID != "" {
		f.voice[m.ID] = voiceChannelID
	}
}

// Connect moves a user into a voice channel without recording a move
func (f *Fake) Connect(userID, channelID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.voice[userID] = channelID
}

// Disconnect drops a user's voice connection
func (f *Fake) Disconnect(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.voice, userID)
}

// HasChannel reports whether the channel still exists
func (f *Fake) HasChannel(channelID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.channels[channelID]
	return ok
}

// Snapshot copies of the recorded calls, safe to read while goroutines run.

func (f *Fake) DeletedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Deleted...)
}

func (f *Fake) EditsSnapshot() []Edit {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Edit(nil), f.Edits...)
}

func (f *Fake) DirectsTo(userID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Directs[userID]...)
}

func (f *Fake) MutationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Mutating
}

func (f *Fake) Channel(_ context.Context, channelID string) (*platform.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[channelID]
	if !ok {
		return nil, oops.With("channel_id", channelID).Wrap(errors.ErrNotFound)
	}
	c := *ch
	return &c, nil
}

func (f *Fake) Member(_ context.Context, userID string) (*platform.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[userID]
	if !ok {
		return nil, oops.With("user_id", userID).Wrap(errors.ErrNotFound)
	}
	c := *m
	return &c, nil
}

func (f *Fake) VoiceChannelOf(_ context.Context, userID string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.voice[userID]
	return ch, ok
}

func (f *Fake) ChannelMembers(_ context.Context, channelID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.MembersErr != nil {
		return nil, f.MembersErr
	}
	return lo.Keys(lo.PickByValues(f.voice, []string{channelID})), nil
}

func (f *Fake) CreateVoiceChannel(_ context.Context, params platform.CreateVoiceChannelParams) (*platform.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Mutating++
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	f.nextID++
	ch := &platform.Channel{
		ID:       fmt.Sprintf("voice-%d", f.nextID),
		Name:     params.Name,
		Kind:     platform.ChannelKindVoice,
		ParentID: params.ParentID,
	}
	f.channels[ch.ID] = ch
	f.Created = append(f.Created, params)
	c := *ch
	return &c, nil
}

func (f *Fake) DeleteChannel(_ context.Context, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Mutating++
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	delete(f.channels, channelID)
	f.Deleted = append(f.Deleted, channelID)
	return nil
}

func (f *Fake) MoveMember(_ context.Context, userID, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Mutating++
	if err := f.MoveErr[userID]; err != nil {
		return err
	}
	f.voice[userID] = channelID
	f.Moves = append(f.Moves, userID)
	return nil
}

func (f *Fake) SendMessage(_ context.Context, channelID string, payload platform.Payload) (platform.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Mutating++
	if f.SendErr != nil {
		return platform.MessageRef{}, f.SendErr
	}
	f.nextID++
	f.Sent = append(f.Sent, payload)
	id := fmt.Sprintf("msg-%d", f.nextID)
	return platform.MessageRef{
		ChannelID: channelID,
		MessageID: id,
		URL:       fmt.Sprintf("https://discord.test/channels/guild/%s/%s", channelID, id),
	}, nil
}

func (f *Fake) EditMessage(_ context.Context, ref platform.MessageRef, payload platform.Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Mutating++
	if f.EditErr != nil {
		return f.EditErr
	}
	f.Edits = append(f.Edits, Edit{Ref: ref, Payload: payload})
	return nil
}

func (f *Fake) SendDirect(_ context.Context, userID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.DirectErr != nil {
		return f.DirectErr
	}
	f.Directs[userID] = append(f.Directs[userID], text)
	return nil
}

// SetEditErr swaps the edit failure while loops are running
func (f *Fake) SetEditErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.EditErr = err
}

var _ platform.Client = (*Fake)(nil)
