package session

import (
	"context"
	"sync"
	"time"

	"github.com/mbolis/alumni-survey/log"
)

type entry struct {
	mu      sync.Mutex
	session *Session
}

// MemoryStore keeps sessions in process. Sessions idle for longer than the
// ttl are dropped by a background sweep.
type MemoryStore struct {
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]*entry
	done    chan struct{}
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	store := &MemoryStore{
		ttl:     ttl,
		entries: make(map[string]*entry),
		done:    make(chan struct{}),
	}

	every := time.Minute
	if ttl < every {
		every = ttl
	}
	if every < time.Second {
		every = time.Second
	}
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				store.DeleteExpired()
			case <-store.done:
				return
			}
		}
	}()

	return store
}

// Close stops the sweep.
func (m *MemoryStore) Close() error {
	close(m.done)
	return nil
}

func (m *MemoryStore) Create(_ context.Context, s *Session) error {
	s.Updated = time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[s.ID] = &entry{session: s}
	return nil
}

func (m *MemoryStore) lock(id string) (*entry, error) {
	m.mu.RLock()
	e, ok := m.entries[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	e.mu.Lock()
	// deleted or expired while waiting
	if e.session == nil || m.expired(e.session) {
		e.mu.Unlock()
		return nil, ErrNotFound
	}
	return e, nil
}

func (m *MemoryStore) expired(s *Session) bool {
	return time.Since(s.Updated) > m.ttl
}

func (m *MemoryStore) View(_ context.Context, id string, fn func(*Session) error) error {
	e, err := m.lock(id)
	if err != nil {
		return err
	}
	defer e.mu.Unlock()
	return fn(e.session)
}

func (m *MemoryStore) Update(_ context.Context, id string, fn func(*Session) error) error {
	e, err := m.lock(id)
	if err != nil {
		return err
	}
	defer e.mu.Unlock()

	if err := fn(e.session); err != nil {
		return err
	}
	e.session.Updated = time.Now()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	e, ok := m.entries[id]
	delete(m.entries, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}

	e.mu.Lock()
	e.session = nil
	e.mu.Unlock()
	return nil
}

// DeleteExpired drops every session idle for longer than the ttl.
func (m *MemoryStore) DeleteExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, e := range m.entries {
		if !e.mu.TryLock() {
			// in use, so not idle
			continue
		}
		if e.session != nil && m.expired(e.session) {
			log.WithFields(log.Fields{"session": id}).Debug("session expired")
			e.session = nil
			delete(m.entries, id)
		}
		e.mu.Unlock()
	}
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
