package telemetry

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/lexdebate/internal/search"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "telemetry", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func record(query string, results int, latency float64) SearchRecord {
	return SearchRecord{
		Timestamp: time.Now(),
		Query:     query,
		K:         3,
		Results:   results,
		LatencyMS: latency,
		Hints:     search.Hints{search.HintJurisdiction: "UK"},
	}
}

func TestStore_TopQueries(t *testing.T) {
	// Given: a history with repeated queries
	s := openTestStore(t)
	ctx := context.Background()
	err := s.SaveBatch(ctx, Batch{Date: "2026-10-18", Searches: []SearchRecord{
		record("parrot defamation", 3, 2),
		record("ghost rent", 3, 4),
		record("parrot defamation", 3, 6),
		{Timestamp: time.Now(), Query: "parrot defamation", K: 0, Error: "k must be positive"},
	}})
	require.NoError(t, err)

	// When: the top queries are read
	top, err := s.TopQueries(ctx, 10)

	// Then: failed searches are excluded and counts are ordered
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "parrot defamation", top[0].Query)
	assert.Equal(t, int64(2), top[0].Count)
	assert.InDelta(t, 4.0, top[0].AvgLatencyMS, 1e-9)
	assert.Equal(t, "ghost rent", top[1].Query)
}

func TestStore_TopQueriesLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	var recs []SearchRecord
	for i := range 5 {
		recs = append(recs, record(fmt.Sprintf("query %d", i), 1, 1))
	}
	require.NoError(t, s.SaveBatch(ctx, Batch{Searches: recs}))

	top, err := s.TopQueries(ctx, 2)

	require.NoError(t, err)
	assert.Len(t, top, 2)
}

func TestStore_RecentRoundTripsHints(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveBatch(ctx, Batch{Searches: []SearchRecord{
		record("first", 1, 1),
		record("second", 0, 1),
	}}))

	recent, err := s.Recent(ctx, 10)

	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "second", recent[0].Query)
	assert.Equal(t, "UK", recent[0].Hints[search.HintJurisdiction])
	assert.Equal(t, 3, recent[1].K)
}

func TestStore_TermsAndLatencyAccumulate(t *testing.T) {
	// Given: two flushes on the same day
	s := openTestStore(t)
	ctx := context.Background()
	for range 2 {
		require.NoError(t, s.SaveBatch(ctx, Batch{
			Date:      "2026-10-18",
			Terms:     map[string]int64{"parrot": 2, "ghost": 1},
			Latencies: map[LatencyBucket]int64{BucketP10: 3},
		}))
	}

	// Then: counts are summed
	terms, err := s.TopTerms(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []TermCount{{"parrot", 4}, {"ghost", 2}}, terms)

	lat, err := s.LatencyCounts(ctx, "2026-10-18", "2026-10-18")
	require.NoError(t, err)
	assert.Equal(t, int64(6), lat[BucketP10])

	none, err := s.LatencyCounts(ctx, "2026-10-19", "2026-10-20")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_ZeroResultQueriesTrimmed(t *testing.T) {
	// Given: more zero-result searches than the buffer holds
	s := openTestStore(t)
	ctx := context.Background()
	var recs []SearchRecord
	for i := range maxZeroResultQueries + 5 {
		recs = append(recs, record(fmt.Sprintf("nothing %d", i), 0, 1))
	}
	recs = append(recs, record("found", 2, 1))
	require.NoError(t, s.SaveBatch(ctx, Batch{Searches: recs}))

	// When: reading them back
	got, err := s.ZeroResultQueries(ctx, 1000)

	// Then: only the newest are kept, and matched searches are absent
	require.NoError(t, err)
	assert.Len(t, got, maxZeroResultQueries)
	assert.Equal(t, fmt.Sprintf("nothing %d", maxZeroResultQueries+4), got[0])
	assert.NotContains(t, got, "found")
}

func TestStore_EmptyBatchIsNoop(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveBatch(context.Background(), Batch{}))

	top, err := s.TopQueries(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestStore_ReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveBatch(context.Background(), Batch{Searches: []SearchRecord{record("parrot", 1, 1)}}))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	top, err := reopened.TopQueries(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, path, reopened.Path())
}
