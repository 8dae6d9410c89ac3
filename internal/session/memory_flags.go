package session

import (
	"context"
	"sync"
	"time"

	"ratings/internal/microservices/http-api/models"
)

// MemoryFlags is a process-local Flags store for single-node and dev use.
type MemoryFlags struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*memorySession
	now      func() time.Time
}

type memorySession struct {
	items     map[string]struct{}
	expiresAt time.Time
}

func NewMemoryFlags(ttl time.Duration) *MemoryFlags {
	return &MemoryFlags{
		ttl:      ttl,
		sessions: make(map[string]*memorySession),
		now:      time.Now,
	}
}

func (f *MemoryFlags) HasRated(_ context.Context, sessionID string, key models.ItemKey) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.sessions[sessionID]
	if !ok {
		return false, nil
	}
	if f.now().After(s.expiresAt) {
		delete(f.sessions, sessionID)
		return false, nil
	}
	_, rated := s.items[key.String()]
	return rated, nil
}

func (f *MemoryFlags) ClaimRated(_ context.Context, sessionID string, key models.ItemKey) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	s, ok := f.sessions[sessionID]
	if !ok || now.After(s.expiresAt) {
		s = &memorySession{items: make(map[string]struct{})}
		f.sessions[sessionID] = s
	}
	s.expiresAt = now.Add(f.ttl)
	if _, taken := s.items[key.String()]; taken {
		return false, nil
	}
	s.items[key.String()] = struct{}{}
	return true, nil
}

func (f *MemoryFlags) ReleaseRated(_ context.Context, sessionID string, key models.ItemKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if s, ok := f.sessions[sessionID]; ok {
		delete(s.items, key.String())
	}
	return nil
}

// Sweep drops expired sessions and returns how many were removed.
func (f *MemoryFlags) Sweep() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	removed := 0
	for id, s := range f.sessions {
		if now.After(s.expiresAt) {
			delete(f.sessions, id)
			removed++
		}
	}
	return removed
}
