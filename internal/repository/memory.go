package repository

import (
	"context"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
)

type memorySession struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time

	nextSweep time.Time
}

type memoryEntry struct {
	session   *entity.Session
	expiresAt time.Time
}

// NewMemorySessionRepository keeps sessions in process memory. Zero ttl keeps them forever.
func NewMemorySessionRepository(ttl time.Duration) SessionRepository {
	return newMemorySessionRepository(ttl, time.Now)
}

func newMemorySessionRepository(ttl time.Duration, now func() time.Time) *memorySession {
	return &memorySession{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		now:      now,
	}
}

func (that *memorySession) CreateOrUpdate(_ context.Context, session *entity.Session) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	entry := memoryEntry{session: session.Clone()}
	if that.ttl > 0 {
		now := that.now()
		entry.expiresAt = now.Add(that.ttl)
		that.sweep(now)
	}

	that.sessions[session.ID] = entry

	return nil
}

func (that *memorySession) GetByID(_ context.Context, id string) (*entity.Session, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	entry, ok := that.lookup(id)
	if !ok {
		return nil, apperror.ErrSessionNotFound
	}

	return entry.session.Clone(), nil
}

func (that *memorySession) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.lookup(id); !ok {
		return apperror.ErrSessionNotFound
	}

	delete(that.sessions, id)

	return nil
}

// sweep drops every expired entry, at most once per ttl. Callers hold the lock.
func (that *memorySession) sweep(now time.Time) {
	if now.Before(that.nextSweep) {
		return
	}

	for id, entry := range that.sessions {
		if !now.Before(entry.expiresAt) {
			delete(that.sessions, id)
		}
	}

	that.nextSweep = now.Add(that.ttl)
}

// lookup drops the entry if it has expired. Callers hold the lock.
func (that *memorySession) lookup(id string) (memoryEntry, bool) {
	entry, ok := that.sessions[id]
	if !ok {
		return memoryEntry{}, false
	}

	if !entry.expiresAt.IsZero() && !that.now().Before(entry.expiresAt) {
		delete(that.sessions, id)
		return memoryEntry{}, false
	}

	return entry, true
}
