package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/lexdebate/internal/search"
	"github.com/Aman-CERP/lexdebate/internal/telemetry"
)

func TestHandleReadCase(t *testing.T) {
	srv, _ := newTestServer(t)

	result, err := srv.handleReadCase(context.Background(), "case://c001")

	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)

	var doc search.Document
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &doc))
	assert.Equal(t, "Polly v. Hargreaves", doc.Title)
}

func TestHandleReadCase_Errors(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name     string
		uri      string
		wantCode int
	}{
		{"unknown id", "case://c999", ErrCodeCaseNotFound},
		{"missing id", "case://", ErrCodeInvalidParams},
		{"wrong scheme", "file://c001", ErrCodeInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := srv.handleReadCase(context.Background(), tt.uri)

			require.Error(t, err)
			assert.Equal(t, tt.wantCode, MapError(err).Code)
		})
	}
}

func TestHandleReadQueryMetrics(t *testing.T) {
	srv, _ := newTestServer(t)

	t.Run("unavailable without a recorder", func(t *testing.T) {
		_, err := srv.handleReadQueryMetrics(context.Background())
		assert.Error(t, err)
	})

	t.Run("reports recorded searches", func(t *testing.T) {
		rec := telemetry.NewRecorder(nil, telemetry.RecorderConfig{})
		t.Cleanup(func() { _ = rec.Close() })
		srv.SetRecorder(rec)

		rec.RecordSearch(context.Background(), search.SearchEvent{
			Query:   "parrot defamation",
			K:       3,
			Results: 0,
			Hints:   search.Hints{search.HintCaseType: "defamation"},
			Latency: 4 * time.Millisecond,
		})

		result, err := srv.handleReadQueryMetrics(context.Background())
		require.NoError(t, err)

		var out QueryMetricsOutput
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &out))
		assert.Equal(t, int64(1), out.Summary.TotalSearches)
		assert.InDelta(t, 100.0, out.Summary.ZeroResultPct, 0.001)
		assert.Equal(t, int64(1), out.HintCounts["case_type=defamation"])
		assert.NotEmpty(t, out.TopTerms)
	})
}
