package session

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lexerr "github.com/Aman-CERP/lexdebate/internal/errors"
	"github.com/Aman-CERP/lexdebate/internal/search"
)

func TestDecision_Validate(t *testing.T) {
	tests := []struct {
		name    string
		dec     Decision
		wantErr bool
	}{
		{"verdict", Decision{Action: ActionVerdict, Verdict: "Prosecution wins"}, false},
		{"verdict missing text", Decision{Action: ActionVerdict, Verdict: "  "}, true},
		{"evidence", Decision{Action: ActionNewEvidence, Evidence: "A recording"}, false},
		{"evidence missing text", Decision{Action: ActionNewEvidence}, true},
		{"role reversal", Decision{Action: ActionRoleReversal}, false},
		{"next round", Decision{Action: ActionNextRound}, false},
		{"unknown", Decision{Action: "appeal"}, true},
		{"empty", Decision{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.dec.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, lexerr.ErrCodeInvalidInput, lexerr.GetCode(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewService_NilDependency(t *testing.T) {
	_, err := NewService(nil, nil)
	assert.ErrorIs(t, err, search.ErrNilDependency)
}

func TestService_Start(t *testing.T) {
	// Given: a service over a canned searcher
	searcher := &cannedSearcher{}
	svc := newTestService(t, searcher)

	// When: a debate starts
	sess, err := svc.Start(context.Background(), "Parrot", "A man sues a parrot for defamation.", nil)

	// Then: the session holds three opening rounds and the precedent
	require.NoError(t, err)
	assert.Equal(t, 3, sess.Debate.Rounds())
	assert.Equal(t, []string{"Polly v. Hargreaves"}, sess.Debate.Cited())
	assert.Equal(t, 1, svc.Store().Len())
	assert.Equal(t, []string{"A man sues a parrot for defamation."}, searcher.queries)
}

func TestService_StartRejectsEmptyCase(t *testing.T) {
	svc := newTestService(t, &cannedSearcher{})

	_, err := svc.Start(context.Background(), "", "   ", nil)

	assert.Equal(t, lexerr.ErrCodeInvalidInput, lexerr.GetCode(err))
	assert.Equal(t, 0, svc.Store().Len())
}

func TestService_StartSurfacesSearchError(t *testing.T) {
	svc := newTestService(t, &cannedSearcher{err: lexerr.New(lexerr.ErrCodeEmbeddingUnavailable, "down", nil)})

	_, err := svc.Start(context.Background(), "", "A parrot case", nil)

	assert.Equal(t, lexerr.ErrCodeEmbeddingUnavailable, lexerr.GetCode(err))
	assert.Equal(t, 0, svc.Store().Len())
}

func TestService_Decide(t *testing.T) {
	ctx := context.Background()

	t.Run("next round adds a judge event", func(t *testing.T) {
		svc := newTestService(t, &cannedSearcher{})
		sess, err := svc.Start(ctx, "", "A parrot case", nil)
		require.NoError(t, err)

		got, err := svc.Decide(ctx, sess.ID, Decision{Action: ActionNextRound})

		require.NoError(t, err)
		assert.Equal(t, 4, got.Debate.Rounds())
		assert.Equal(t, 1, got.Revision)
		assert.True(t, strings.HasPrefix(got.Debate.JudgeEvents[3].Event, "Round 4: "))
	})

	t.Run("role reversal swaps sides", func(t *testing.T) {
		svc := newTestService(t, &cannedSearcher{})
		sess, err := svc.Start(ctx, "", "A parrot case", nil)
		require.NoError(t, err)

		got, err := svc.Decide(ctx, sess.ID, Decision{Action: ActionRoleReversal})

		require.NoError(t, err)
		assert.True(t, got.Debate.Reversed)
		assert.Equal(t, sess.Debate.Defense, got.Debate.Prosecution)
		assert.Equal(t, sess.Debate.Prosecution, got.Debate.Defense)
	})

	t.Run("new evidence re-searches the extended case", func(t *testing.T) {
		searcher := &cannedSearcher{}
		svc := newTestService(t, searcher)
		sess, err := svc.Start(ctx, "", "A parrot case", nil)
		require.NoError(t, err)

		got, err := svc.Decide(ctx, sess.ID, Decision{Action: ActionNewEvidence, Evidence: "A recording"})

		require.NoError(t, err)
		assert.Equal(t, "A parrot case New evidence: A recording", got.Debate.Case)
		assert.Equal(t, "A parrot case New evidence: A recording", searcher.queries[1])
		assert.Equal(t, 3, got.Debate.Rounds())
	})

	t.Run("verdict closes and removes the session", func(t *testing.T) {
		svc := newTestService(t, &cannedSearcher{})
		sess, err := svc.Start(ctx, "Parrot", "A parrot case", nil)
		require.NoError(t, err)

		got, err := svc.Decide(ctx, sess.ID, Decision{Action: ActionVerdict, Verdict: "Defense wins"})

		require.NoError(t, err)
		assert.True(t, got.Closed)
		assert.Equal(t, "Defense wins", got.Verdict)
		assert.Contains(t, got.Summary, "The case 'Parrot' was debated over 3 rounds.")
		assert.Contains(t, got.Summary, "Verdict: Defense wins.")
		assert.Contains(t, got.Summary, "Precedents cited: Polly v. Hargreaves.")

		_, err = svc.Store().Get(sess.ID)
		assert.True(t, IsNotFound(err))
	})

	t.Run("unknown session", func(t *testing.T) {
		svc := newTestService(t, &cannedSearcher{})

		_, err := svc.Decide(ctx, "nope", Decision{Action: ActionNextRound})

		assert.True(t, IsNotFound(err))
	})

	t.Run("failed evidence search leaves the session unchanged", func(t *testing.T) {
		searcher := &cannedSearcher{}
		svc := newTestService(t, searcher)
		sess, err := svc.Start(ctx, "", "A parrot case", nil)
		require.NoError(t, err)

		searcher.err = lexerr.New(lexerr.ErrCodeEmbeddingUnavailable, "down", nil)
		_, err = svc.Decide(ctx, sess.ID, Decision{Action: ActionNewEvidence, Evidence: "A recording"})
		require.Error(t, err)

		stored, err := svc.Store().Get(sess.ID)
		require.NoError(t, err)
		assert.Equal(t, "A parrot case", stored.Debate.Case)
		assert.Equal(t, 0, stored.Revision)
	})
}
