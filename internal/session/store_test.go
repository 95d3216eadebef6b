package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lexerr "github.com/Aman-CERP/lexdebate/internal/errors"
	"github.com/Aman-CERP/lexdebate/internal/search"
)

func TestStore_CreateAndGet(t *testing.T) {
	// Given: an empty store
	s := NewStore(0, 0)
	assert.Equal(t, DefaultTTL, s.TTL())

	// When: a session is created
	created := s.Create("Parrot", sampleDebate())

	// Then: it is retrievable by its uuid
	got, err := s.Get(created.ID)
	require.NoError(t, err)
	assert.Len(t, created.ID, 36)
	assert.Equal(t, "Parrot", got.Title)
	assert.Equal(t, 0, got.Revision)
	assert.Equal(t, 1, s.Len())
}

func TestStore_GetUnknown(t *testing.T) {
	s := NewStore(0, 0)

	_, err := s.Get("missing")

	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, lexerr.ErrCodeSessionNotFound, lexerr.GetCode(err))
}

func TestStore_GetReturnsCopy(t *testing.T) {
	// Given: a stored session
	s := NewStore(0, 0)
	created := s.Create("", sampleDebate())

	// When: the caller mutates its copy
	got, err := s.Get(created.ID)
	require.NoError(t, err)
	got.Debate.Prosecution[0].Argument = "changed"
	got.Debate.Hints[search.HintCaseType] = "contract"

	// Then: the stored session is untouched
	again, err := s.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "The parrot spoke.", again.Debate.Prosecution[0].Argument)
	assert.Equal(t, "defamation", again.Debate.Hints[search.HintCaseType])
}

func TestStore_CommitRejectsStaleCopy(t *testing.T) {
	// Given: two readers of the same session
	s := NewStore(0, 0)
	created := s.Create("", sampleDebate())
	first, err := s.Get(created.ID)
	require.NoError(t, err)
	second, err := s.Get(created.ID)
	require.NoError(t, err)

	// When: both commit
	first.Verdict = "guilty"
	committed, err := s.Commit(first)
	require.NoError(t, err)
	_, err = s.Commit(second)

	// Then: the second commit is rejected
	assert.Equal(t, 1, committed.Revision)
	require.Error(t, err)
	assert.Equal(t, lexerr.ErrCodeInvalidInput, lexerr.GetCode(err))

	stored, err := s.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "guilty", stored.Verdict)
}

func TestStore_CommitUnknown(t *testing.T) {
	s := NewStore(0, 0)
	orphan := New("gone", "", sampleDebate())

	_, err := s.Commit(orphan)

	assert.True(t, IsNotFound(err))
}

func TestStore_EvictsLeastRecent(t *testing.T) {
	// Given: a store capped at two sessions
	s := NewStore(2, 0)
	a := s.Create("a", sampleDebate())
	b := s.Create("b", sampleDebate())

	// When: a third is created
	c := s.Create("c", sampleDebate())

	// Then: the oldest is gone
	_, err := s.Get(a.ID)
	assert.True(t, IsNotFound(err))
	_, err = s.Get(b.ID)
	assert.NoError(t, err)
	_, err = s.Get(c.ID)
	assert.NoError(t, err)
	assert.Equal(t, 2, s.Len())
}

func TestStore_Expires(t *testing.T) {
	// Given: a store with a short TTL
	s := NewStore(10, 30*time.Millisecond)
	sess := s.Create("", sampleDebate())

	// When: the TTL passes
	// Then: the session is gone
	assert.Eventually(t, func() bool {
		_, err := s.Get(sess.ID)
		return IsNotFound(err)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStore_DeleteAndList(t *testing.T) {
	s := NewStore(0, 0)
	a := s.Create("a", sampleDebate())
	time.Sleep(2 * time.Millisecond)
	b := s.Create("b", sampleDebate())

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, b.ID, list[1].ID)

	assert.True(t, s.Delete(a.ID))
	assert.False(t, s.Delete(a.ID))
	assert.Equal(t, 1, s.Len())
}

func TestStore_PutDropsStale(t *testing.T) {
	s := NewStore(0, time.Minute)
	now := time.Now()

	fresh := New("fresh", "", sampleDebate())
	stale := New("stale", "", sampleDebate())
	stale.UpdatedAt = now.Add(-2 * time.Minute)

	assert.True(t, s.put(fresh, now))
	assert.False(t, s.put(stale, now))
	assert.False(t, s.put(nil, now))
	assert.Equal(t, 1, s.Len())
}
