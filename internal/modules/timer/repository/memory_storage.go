package repository

import (
	"sort"
	"sync"
	"time"

	"github.com/reshetovitsme/squad-bot/internal/modules/timer/domain"
	"github.com/samber/lo"
)

// MemoryStorage keeps timers in process memory
type MemoryStorage struct {
	mu     sync.RWMutex
	timers map[string]domain.CountdownTimer
}

// NewMemoryStorage creates an empty timer registry
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{timers: make(map[string]domain.CountdownTimer)}
}

func (s *MemoryStorage) Insert(timer domain.CountdownTimer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.timers[timer.ID]; exists {
		return false
	}
	s.timers[timer.ID] = timer
	return true
}

func (s *MemoryStorage) Get(timerID string) (domain.CountdownTimer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.timers[timerID]
	return t, ok
}

func (s *MemoryStorage) Finish(timerID string, state domain.TimerState, reason string, at time.Time) (domain.CountdownTimer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.timers[timerID]
	if !ok || t.Terminal() {
		return t, false
	}
	t.State = state
	t.FailureReason = reason
	t.FinishedAt = at
	s.timers[timerID] = t
	return t, true
}

// All returns a snapshot, newest first
func (s *MemoryStorage) All() []domain.CountdownTimer {
	s.mu.RLock()
	timers := lo.Values(s.timers)
	s.mu.RUnlock()

	sort.Slice(timers, func(i, j int) bool {
		return timers[i].CreatedAt.After(timers[j].CreatedAt)
	})
	return timers
}

func (s *MemoryStorage) Prune(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	pruned := 0
	for id, t := range s.timers {
		if t.Terminal() && t.FinishedAt.Before(cutoff) {
			delete(s.timers, id)
			pruned++
		}
	}
	return pruned
}
