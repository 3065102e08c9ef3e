package sessions

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	ierrors "tracklight/internal/errors"
)

const cleanupInterval = 5 * time.Minute

// InMemoryRepo is a thread-safe in-memory implementation of Repo.
// Sessions are held in process memory only; a restart logs everyone out.
type InMemoryRepo struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	nowTime     func() time.Time
	stopCleanup chan struct{}
}

var _ Repo = (*InMemoryRepo)(nil)

// NewInMemoryRepo creates a new in-memory session repository and starts
// a background goroutine that evicts expired sessions.
func NewInMemoryRepo() *InMemoryRepo {
	r := &InMemoryRepo{
		sessions:    make(map[string]*Session),
		nowTime:     time.Now,
		stopCleanup: make(chan struct{}),
	}
	go r.cleanupLoop()
	return r
}

// Upsert stores or replaces a session.
func (r *InMemoryRepo) Upsert(session *Session) error {
	if session == nil {
		return errors.New("session cannot be nil")
	}
	if session.ID == "" {
		return errors.New("session ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = copySession(session)
	return nil
}

// Get retrieves a session by ID. Expired sessions are treated as absent.
// The read lock is held until the session is copied: update() mutates
// stored sessions in place, so reads of their fields must not outlive
// the lock.
func (r *InMemoryRepo) Get(sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, ierrors.ErrSessionNotFound
	}

	r.mu.RLock()
	session, exists := r.sessions[sessionID]
	if !exists {
		r.mu.RUnlock()
		return nil, ierrors.ErrSessionNotFound
	}
	expired := session.Expired(r.nowTime())
	var copied *Session
	if !expired {
		copied = copySession(session)
	}
	r.mu.RUnlock()

	if expired {
		_ = r.Delete(sessionID)
		return nil, ierrors.ErrSessionExpired
	}
	return copied, nil
}

// Delete removes a session. Deleting an absent session is not an error.
func (r *InMemoryRepo) Delete(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
	return nil
}

// SetPKCE stores the PKCE record for an authorization attempt,
// overwriting any pending one.
func (r *InMemoryRepo) SetPKCE(sessionID string, record *PKCERecord) error {
	return r.update(sessionID, func(s *Session) {
		s.PKCE = copyPKCE(record)
	})
}

// ClearPKCE deletes the in-flight PKCE record.
func (r *InMemoryRepo) ClearPKCE(sessionID string) error {
	return r.update(sessionID, func(s *Session) {
		s.PKCE = nil
	})
}

// SetToken replaces the session's token record wholesale.
func (r *InMemoryRepo) SetToken(sessionID string, record *TokenRecord) error {
	return r.update(sessionID, func(s *Session) {
		s.Token = copyToken(record)
	})
}

// ClearToken destroys the session's token record.
func (r *InMemoryRepo) ClearToken(sessionID string) error {
	return r.update(sessionID, func(s *Session) {
		s.Token = nil
	})
}

// Stop stops the background cleanup goroutine.
func (r *InMemoryRepo) Stop() {
	close(r.stopCleanup)
}

func (r *InMemoryRepo) update(sessionID string, mutate func(*Session)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, exists := r.sessions[sessionID]
	if !exists {
		return ierrors.ErrSessionNotFound
	}
	mutate(session)
	return nil
}

func (r *InMemoryRepo) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.cleanup()
		case <-r.stopCleanup:
			return
		}
	}
}

func (r *InMemoryRepo) cleanup() {
	now := r.nowTime()

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, session := range r.sessions {
		if session.Expired(now) {
			delete(r.sessions, id)
		}
	}
}

// Copies prevent callers from mutating stored records outside the
// workflow controller's accessor functions.

func copySession(s *Session) *Session {
	c := *s
	c.PKCE = copyPKCE(s.PKCE)
	c.Token = copyToken(s.Token)
	return &c
}

func copyPKCE(p *PKCERecord) *PKCERecord {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func copyToken(t *TokenRecord) *TokenRecord {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
