package repository

import (
	"sort"
	"sync"

	"github.com/reshetovitsme/squad-bot/internal/modules/voice/domain"
	"github.com/samber/lo"
)

// MemoryStorage implements Repository in process memory. Nothing survives a restart.
type MemoryStorage struct {
	mu       sync.RWMutex
	channels map[string]domain.TrackedChannel
}

// NewMemoryStorage creates an empty channel registry
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{channels: make(map[string]domain.TrackedChannel)}
}

func (s *MemoryStorage) Insert(channel domain.TrackedChannel) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.channels[channel.ID]; exists {
		return false
	}
	s.channels[channel.ID] = channel
	return true
}

func (s *MemoryStorage) Get(channelID string) (domain.TrackedChannel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ch, ok := s.channels[channelID]
	return ch, ok
}

func (s *MemoryStorage) Contains(channelID string) bool {
	_, ok := s.Get(channelID)
	return ok
}

func (s *MemoryStorage) Take(channelID string) (domain.TrackedChannel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.channels[channelID]
	if ok {
		delete(s.channels, channelID)
	}
	return ch, ok
}

// All returns a snapshot ordered by creation time
func (s *MemoryStorage) All() []domain.TrackedChannel {
	s.mu.RLock()
	channels := lo.Values(s.channels)
	s.mu.RUnlock()

	sort.Slice(channels, func(i, j int) bool {
		return channels[i].CreatedAt.Before(channels[j].CreatedAt)
	})
	return channels
}

func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.channels)
}
