package conversation

import (
	"context"
	"sync"
	"time"

	"clinicbot/models"
)

// SessionStore holds one session per user. Callers must hold the user's lock
// around a Load/Save pair; turns of different users may run in parallel.
type SessionStore interface {
	// Lock blocks until the caller owns userID's session or ctx is done.
	// The returned release func is safe to call more than once.
	Lock(ctx context.Context, userID string) (release func(), err error)
	// Load returns a copy of the user's session, creating an idle one if none exists.
	Load(ctx context.Context, userID string) (*models.Session, error)
	Save(ctx context.Context, sess *models.Session) error
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

// MemoryStore is a process-local SessionStore.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	locks    map[string]*keyLock
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*models.Session),
		locks:    make(map[string]*keyLock),
	}
}

func (s *MemoryStore) Lock(ctx context.Context, userID string) (func(), error) {
	s.mu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &keyLock{ch: make(chan struct{}, 1)}
		s.locks[userID] = l
	}
	l.refs++
	s.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-l.ch
				s.dropRef(userID, l)
			})
		}, nil
	case <-ctx.Done():
		s.dropRef(userID, l)
		return nil, ctx.Err()
	}
}

func (s *MemoryStore) dropRef(userID string, l *keyLock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, userID)
	}
}

func (s *MemoryStore) Load(_ context.Context, userID string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok {
		return sess.Clone(), nil
	}
	return models.NewSession(userID), nil
}

func (s *MemoryStore) Save(_ context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.UserID] = sess.Clone()
	return nil
}

// Sweep evicts sessions idle since before now-idle. Sessions whose lock is
// held or awaited are kept. It returns the number of evicted sessions.
func (s *MemoryStore) Sweep(idle time.Duration, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-idle)
	evicted := 0
	for id, sess := range s.sessions {
		if _, busy := s.locks[id]; busy {
			continue
		}
		if sess.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of sessions held.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
