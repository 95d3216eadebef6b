package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Aman-CERP/lexdebate/internal/debate"
	lexerr "github.com/Aman-CERP/lexdebate/internal/errors"
	"github.com/Aman-CERP/lexdebate/internal/search"
)

// Action is a judge decision on a session.
type Action string

const (
	// ActionVerdict rules on the debate, summarizes it and closes the session.
	ActionVerdict Action = "verdict"
	// ActionNewEvidence appends evidence to the case and re-argues it.
	ActionNewEvidence Action = "new_evidence"
	// ActionRoleReversal swaps the two lawyers.
	ActionRoleReversal Action = "role_reversal"
	// ActionNextRound plays another round.
	ActionNextRound Action = "next_round"
)

// Decision is the judge's input for one action.
type Decision struct {
	Action   Action
	Verdict  string
	Evidence string
}

// Validate checks that the decision carries what its action needs.
func (d Decision) Validate() error {
	switch d.Action {
	case ActionVerdict:
		if strings.TrimSpace(d.Verdict) == "" {
			return lexerr.ValidationError("verdict is required", nil)
		}
	case ActionNewEvidence:
		if strings.TrimSpace(d.Evidence) == "" {
			return lexerr.ValidationError("new_evidence is required", nil)
		}
	case ActionRoleReversal, ActionNextRound:
	default:
		return lexerr.ValidationError(fmt.Sprintf("unknown action %q", d.Action), nil).
			WithSuggestion("Use one of: verdict, new_evidence, role_reversal, next_round")
	}
	return nil
}

// Service runs debates and stores them as sessions.
type Service struct {
	store  *Store
	engine *debate.Engine
}

// NewService wires a Service.
func NewService(store *Store, engine *debate.Engine) (*Service, error) {
	if store == nil || engine == nil {
		return nil, fmt.Errorf("%w: session service needs a store and an engine", search.ErrNilDependency)
	}
	return &Service{store: store, engine: engine}, nil
}

// Store returns the underlying store.
func (s *Service) Store() *Store {
	return s.store
}

// Start opens a debate on caseText and stores it as a new session.
func (s *Service) Start(ctx context.Context, title, caseText string, hints search.Hints) (*Session, error) {
	if strings.TrimSpace(caseText) == "" {
		return nil, lexerr.ValidationError("case text is required", nil)
	}
	d, err := s.engine.Open(ctx, caseText, hints)
	if err != nil {
		return nil, err
	}
	sess := s.store.Create(title, d)
	slog.Info("session_started",
		slog.String("session_id", sess.ID),
		slog.Int("precedents", len(d.Precedents)))
	return sess, nil
}

// Decide applies a judge decision. A verdict closes the session and
// removes it from the store; the closed session is returned.
func (s *Service) Decide(ctx context.Context, id string, dec Decision) (*Session, error) {
	if err := dec.Validate(); err != nil {
		return nil, err
	}

	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, sess, dec); err != nil {
		return nil, err
	}
	if sess, err = s.store.Commit(sess); err != nil {
		return nil, err
	}

	slog.Info("session_decided",
		slog.String("session_id", id),
		slog.String("action", string(dec.Action)),
		slog.Int("rounds", sess.Debate.Rounds()))

	if sess.Closed {
		s.store.Delete(id)
	}
	return sess, nil
}

// apply runs the action on a private copy of the session; nothing is
// visible to other requests until Commit.
func (s *Service) apply(ctx context.Context, sess *Session, dec Decision) error {
	d := sess.Debate
	switch dec.Action {
	case ActionVerdict:
		sess.Verdict = strings.TrimSpace(dec.Verdict)
		sess.Summary = s.engine.Summarize(ctx, d, sess.Title, sess.Verdict)
		sess.Closed = true
	case ActionNewEvidence:
		return s.engine.AddEvidence(ctx, d, dec.Evidence)
	case ActionRoleReversal:
		s.engine.ReverseRoles(d)
	case ActionNextRound:
		s.engine.Round(ctx, d)
	}
	return nil
}
