// Package session keeps debate sessions in memory between requests.
// Sessions expire after a TTL and the store is size-bounded; the
// least recently written session is evicted first. The store can be
// snapshotted to a JSON file and restored on startup.
package session

import (
	"slices"
	"time"

	"github.com/Aman-CERP/lexdebate/internal/debate"
	"github.com/Aman-CERP/lexdebate/pkg/version"
)

// Session is one debate and the judge's decisions on it.
type Session struct {
	ID    string `json:"session_id"`
	Title string `json:"title,omitempty"`

	Debate *debate.Debate `json:"debate"`

	// Verdict and Summary are set once the judge rules.
	Verdict string `json:"verdict,omitempty"`
	Summary string `json:"summary,omitempty"`
	Closed  bool   `json:"closed"`

	// Revision counts committed writes.
	Revision int `json:"revision"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Version is the lexdebate version that created the session.
	Version string `json:"version"`
}

// New creates a session around d.
func New(id, title string, d *debate.Debate) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		Title:     title,
		Debate:    d,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   version.Version,
	}
}

// Touch updates UpdatedAt to now.
func (s *Session) Touch() {
	s.UpdatedAt = time.Now()
}

// IsStale reports whether the session was last written more than ttl ago.
func (s *Session) IsStale(ttl time.Duration, now time.Time) bool {
	return now.Sub(s.UpdatedAt) > ttl
}

// Clone returns a copy that shares no slices with s.
func (s *Session) Clone() *Session {
	c := *s
	if s.Debate != nil {
		d := *s.Debate
		d.Precedents = slices.Clone(d.Precedents)
		d.Prosecution = slices.Clone(d.Prosecution)
		d.Defense = slices.Clone(d.Defense)
		d.JudgeEvents = slices.Clone(d.JudgeEvents)
		d.Hints = cloneHints(d.Hints)
		d.Explicit = cloneHints(d.Explicit)
		c.Debate = &d
	}
	return &c
}

func cloneHints[M ~map[string]string](m M) M {
	if m == nil {
		return nil
	}
	out := make(M, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
