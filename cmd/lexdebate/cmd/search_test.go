package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchCmd_JSONOutput(t *testing.T) {
	// Given: the built-in sample corpus
	env := newTestEnv(t)

	// When: searching with JSON output
	out, err := env.run(t, "search", "parrot", "defamation", "UK", "--format", "json", "-n", "2", "--no-history")

	// Then: the parrot case ranks first and the hints are reported
	require.NoError(t, err)
	var resp struct {
		Query   string `json:"query"`
		Results []struct {
			Index    int `json:"index"`
			Document struct {
				ID string `json:"id"`
			} `json:"document"`
		} `json:"results"`
		Hints map[string]string `json:"hints"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "parrot defamation UK", resp.Query)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "c001", resp.Results[0].Document.ID)
	assert.Equal(t, "defamation", resp.Hints["case_type"])
	assert.Equal(t, "UK", resp.Hints["jurisdiction"])
}

func TestSearchCmd_Formats(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		contains string
	}{
		{"text", "text", "Polly v. Hargreaves"},
		{"markdown", "markdown", "## Precedents for"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			out, err := env.run(t, "search", "parrot defamation", "-f", tt.format, "--no-history")

			require.NoError(t, err)
			assert.Contains(t, out, tt.contains)
		})
	}
}

func TestSearchCmd_Rejects(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown format", []string{"search", "parrot", "-f", "xml"}},
		{"no query", []string{"search"}},
		{"negative limit", []string{"search", "parrot", "--limit=-1", "--no-history"}},
		{"zero limit", []string{"search", "parrot", "-n", "0", "--no-history"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			_, err := env.run(t, tt.args...)

			assert.Error(t, err)
		})
	}
}

func TestSearchCmd_RecordsHistoryForStats(t *testing.T) {
	// Given: two searches recorded in the telemetry database
	env := newTestEnv(t)
	_, err := env.run(t, "search", "parrot defamation", "-f", "json")
	require.NoError(t, err)
	_, err = env.run(t, "search", "parrot defamation", "-f", "json")
	require.NoError(t, err)

	// When: reading the statistics
	out, err := env.run(t, "stats", "--json")

	// Then: both searches are counted under the same query
	require.NoError(t, err)
	var stats StatsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, env.dbPath, stats.Database)
	assert.Equal(t, int64(2), stats.TotalSearches)
	require.NotEmpty(t, stats.TopQueries)
	assert.Equal(t, "parrot defamation", stats.TopQueries[0].Query)
	assert.Equal(t, int64(2), stats.TopQueries[0].Count)
}

func TestStatsCmd_NoDatabase(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "stats")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no search history")
}
