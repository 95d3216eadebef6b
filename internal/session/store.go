package session

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/Aman-CERP/lexdebate/internal/debate"
	lexerr "github.com/Aman-CERP/lexdebate/internal/errors"
)

const (
	// DefaultTTL is how long an untouched session lives.
	DefaultTTL = time.Hour

	// DefaultMaxSessions caps the number of live sessions.
	DefaultMaxSessions = 1000
)

// Store holds sessions keyed by id. Reads return copies; writes go
// through Commit, which rejects stale copies.
type Store struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, *Session]
	ttl   time.Duration
	max   int
}

// NewStore creates a store. Non-positive values use the defaults.
func NewStore(maxSessions int, ttl time.Duration) *Store {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	onEvict := func(id string, _ *Session) {
		slog.Debug("session_evicted", slog.String("session_id", id))
	}
	return &Store{
		cache: expirable.NewLRU[string, *Session](maxSessions, onEvict, ttl),
		ttl:   ttl,
		max:   maxSessions,
	}
}

// Create stores a new session around d and returns a copy of it.
func (s *Store) Create(title string, d *debate.Debate) *Session {
	sess := New(uuid.NewString(), title, d)
	s.mu.Lock()
	s.cache.Add(sess.ID, sess)
	s.mu.Unlock()
	return sess.Clone()
}

// Get returns a copy of the session.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.cache.Get(id)
	if !ok {
		return nil, notFound(id)
	}
	return sess.Clone(), nil
}

// Commit stores sess if no other write landed since it was read, bumps
// its revision and refreshes its TTL.
func (s *Store) Commit(sess *Session) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.cache.Get(sess.ID)
	if !ok {
		return nil, notFound(sess.ID)
	}
	if cur.Revision != sess.Revision {
		return nil, lexerr.ValidationError("session changed while the decision was applied", nil).
			WithDetail("session_id", sess.ID).
			WithSuggestion("Retry the decision")
	}

	next := sess.Clone()
	next.Revision++
	next.Touch()
	s.cache.Add(next.ID, next)
	return next.Clone(), nil
}

// Delete removes a session. It reports whether the session existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Remove(id)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Len()
}

// List returns copies of all live sessions, oldest first.
func (s *Store) List() []*Session {
	s.mu.Lock()
	values := s.cache.Values()
	s.mu.Unlock()

	out := make([]*Session, 0, len(values))
	for _, v := range values {
		out = append(out, v.Clone())
	}
	slices.SortFunc(out, func(a, b *Session) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out
}

// put restores a session as-is. Stale sessions are dropped.
func (s *Store) put(sess *Session, now time.Time) bool {
	if sess == nil || sess.ID == "" || sess.IsStale(s.ttl, now) {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Add(sess.ID, sess.Clone())
	return true
}

// TTL returns the session lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

func notFound(id string) error {
	return lexerr.New(lexerr.ErrCodeSessionNotFound, fmt.Sprintf("unknown session_id %q", id), nil).
		WithSuggestion("Start a new debate; sessions expire after inactivity")
}

// IsNotFound reports whether err is an unknown-session error.
func IsNotFound(err error) bool {
	return lexerr.GetCode(err) == lexerr.ErrCodeSessionNotFound
}
