package meeting

import (
	"errors"
	"sync"
	"time"
)

// idleTTL bounds how long a session opened over HTTP may wait for its frame
// bridge before it is swept.
const idleTTL = 10 * time.Minute

var ErrSessionOwned = errors.New("meeting session belongs to another user")

type entry struct {
	session  *Session
	openedAt time.Time
}

// Registry tracks the open sessions of this process by session id.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]entry
	now      func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]entry),
		now:      time.Now,
	}
}

// Open stores session, replacing and unmounting any previous session with the
// same id. A session opened by another user is never replaced.
func (r *Registry) Open(session *Session) error {
	id := session.State().SessionID
	now := r.now()

	r.mu.Lock()
	previous, existed := r.sessions[id]
	if existed && previous.session.Owner() != session.Owner() {
		r.mu.Unlock()
		return ErrSessionOwned
	}
	r.sessions[id] = entry{session: session, openedAt: now}
	stale := r.sweepLocked(now)
	r.mu.Unlock()

	if existed && previous.session != session {
		previous.session.Unmount()
	}
	for _, s := range stale {
		s.Unmount()
	}
	return nil
}

func (r *Registry) Get(sessionID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sessionID]
	return e.session, ok
}

// Close ends the mount gen of session and forgets the session if it is still
// the registered one. A later mount of the same session is left alone.
func (r *Registry) Close(session *Session, gen uint64) {
	if !session.UnmountIf(gen) {
		return
	}

	id := session.State().SessionID
	r.mu.Lock()
	if e, ok := r.sessions[id]; ok && e.session == session {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) sweepLocked(now time.Time) []*Session {
	var stale []*Session
	for id, e := range r.sessions {
		if !e.session.Mounted() && now.Sub(e.openedAt) > idleTTL {
			delete(r.sessions, id)
			stale = append(stale, e.session)
		}
	}
	return stale
}
