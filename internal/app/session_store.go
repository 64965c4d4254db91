package app

import (
	"sync"
	"time"

	"github.com/yourusername/likegate/internal/domain"
)

// sessionEntry is immutable once stored; transitions replace the pointer
type sessionEntry struct {
	state    domain.SessionState
	metadata domain.VideoMetadata
	storedAt time.Time
}

// MemorySessionStore implements domain.SessionStore in process memory.
// Entries older than ttl, pending or still resolving, read as idle;
// a zero ttl never expires.
type MemorySessionStore struct {
	entries sync.Map // domain.SessionID -> *sessionEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemorySessionStore creates a new in-memory session store
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{ttl: ttl, now: time.Now}
}

// Begin marks the session as resolving and drops any pending metadata
func (s *MemorySessionStore) Begin(sid domain.SessionID) {
	s.entries.Store(sid, &sessionEntry{state: domain.StateResolving, storedAt: s.now()})
}

// Put stores approved metadata, replacing anything pending
func (s *MemorySessionStore) Put(sid domain.SessionID, meta domain.VideoMetadata) {
	s.entries.Store(sid, &sessionEntry{
		state:    domain.StateAwaitingFormatChoice,
		metadata: meta,
		storedAt: s.now(),
	})
}

// Take removes and returns pending metadata. Of two concurrent callers at
// most one receives it.
func (s *MemorySessionStore) Take(sid domain.SessionID) (domain.VideoMetadata, bool) {
	v, ok := s.entries.Load(sid)
	if !ok {
		return domain.VideoMetadata{}, false
	}
	entry := v.(*sessionEntry)
	if entry.state != domain.StateAwaitingFormatChoice {
		return domain.VideoMetadata{}, false
	}
	if !s.entries.CompareAndDelete(sid, entry) {
		return domain.VideoMetadata{}, false
	}
	if s.expired(entry) {
		return domain.VideoMetadata{}, false
	}
	return entry.metadata, true
}

// State returns the current state of a session
func (s *MemorySessionStore) State(sid domain.SessionID) domain.SessionState {
	v, ok := s.entries.Load(sid)
	if !ok {
		return domain.StateIdle
	}
	entry := v.(*sessionEntry)
	if s.expired(entry) {
		return domain.StateIdle
	}
	return entry.state
}

// Clear returns the session to idle
func (s *MemorySessionStore) Clear(sid domain.SessionID) {
	s.entries.Delete(sid)
}

// Len returns the number of sessions not in the idle state
func (s *MemorySessionStore) Len() int {
	n := 0
	s.entries.Range(func(_, v any) bool {
		if !s.expired(v.(*sessionEntry)) {
			n++
		}
		return true
	})
	return n
}

// Prune deletes expired entries and returns how many were removed. A
// resolution abandoned after Begin is dropped here too.
func (s *MemorySessionStore) Prune() int {
	removed := 0
	s.entries.Range(func(k, v any) bool {
		entry := v.(*sessionEntry)
		if s.expired(entry) {
			if s.entries.CompareAndDelete(k, entry) {
				removed++
			}
		}
		return true
	})
	return removed
}

func (s *MemorySessionStore) expired(entry *sessionEntry) bool {
	return s.ttl > 0 && s.now().Sub(entry.storedAt) > s.ttl
}
