package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/lexdebate/internal/output"
	"github.com/Aman-CERP/lexdebate/internal/telemetry"
)

// latencyOrder lists the latency buckets fastest first.
var latencyOrder = []telemetry.LatencyBucket{
	telemetry.BucketP10,
	telemetry.BucketP50,
	telemetry.BucketP100,
	telemetry.BucketP500,
	telemetry.BucketP1000,
}

var latencyLabels = map[telemetry.LatencyBucket]string{
	telemetry.BucketP10:   "<10ms",
	telemetry.BucketP50:   "10-50ms",
	telemetry.BucketP100:  "50-100ms",
	telemetry.BucketP500:  "100-500ms",
	telemetry.BucketP1000: ">=500ms",
}

// StatsOutput is the JSON output of `lexdebate stats`.
type StatsOutput struct {
	Database            string                 `json:"database"`
	Days                int                    `json:"days"`
	TotalSearches       int64                  `json:"total_searches"`
	TopQueries          []telemetry.QueryCount `json:"top_queries"`
	TopTerms            []telemetry.TermCount  `json:"top_terms"`
	ZeroResultQueries   []string               `json:"zero_result_queries"`
	LatencyDistribution map[string]int64       `json:"latency_distribution"`
}

func newStatsCmd(global *globalOptions) *cobra.Command {
	var jsonOutput bool
	var days int
	var top int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show search history statistics",
		Long: `Display search telemetry recorded by 'serve' and 'search':
  - Most frequent queries and query terms
  - Recent queries that matched nothing
  - Latency distribution over the last --days days`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}
			path := cfg.Telemetry.DBPath
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("no search history at %s; run some searches first", path)
			}

			store, err := telemetry.Open(path)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			stats, err := collectStats(cmd.Context(), store, days, top)
			if err != nil {
				return err
			}
			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}
			printStats(output.New(cmd.OutOrStdout()), stats)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().IntVar(&days, "days", 7, "Number of days of latency data to include")
	cmd.Flags().IntVar(&top, "top", 10, "Number of queries and terms to list")
	return cmd
}

func collectStats(ctx context.Context, store *telemetry.Store, days, top int) (*StatsOutput, error) {
	if days <= 0 {
		days = 1
	}
	now := time.Now()
	from := now.AddDate(0, 0, -(days - 1)).Format("2006-01-02")
	to := now.Format("2006-01-02")

	queries, err := store.TopQueries(ctx, top)
	if err != nil {
		return nil, err
	}
	terms, err := store.TopTerms(ctx, top)
	if err != nil {
		return nil, err
	}
	zero, err := store.ZeroResultQueries(ctx, top)
	if err != nil {
		return nil, err
	}
	latency, err := store.LatencyCounts(ctx, from, to)
	if err != nil {
		return nil, err
	}

	out := &StatsOutput{
		Database:            store.Path(),
		Days:                days,
		TopQueries:          queries,
		TopTerms:            terms,
		ZeroResultQueries:   zero,
		LatencyDistribution: make(map[string]int64, len(latency)),
	}
	for bucket, n := range latency {
		out.LatencyDistribution[string(bucket)] = n
		out.TotalSearches += n
	}
	return out, nil
}

func printStats(out *output.Writer, s *StatsOutput) {
	out.Header("Search Statistics")
	out.Field("Database", s.Database)
	out.Field(fmt.Sprintf("Searches (%dd)", s.Days), s.TotalSearches)
	out.Newline()

	out.Header("Latency")
	for _, b := range latencyOrder {
		n := s.LatencyDistribution[string(b)]
		out.Statusf("", "%-10s %s %d", latencyLabels[b], output.Bar(int(n), int(s.TotalSearches), 20), n)
	}
	out.Newline()

	out.Header("Top Queries")
	if len(s.TopQueries) == 0 {
		out.Status("", "(none recorded yet)")
	}
	for i, q := range s.TopQueries {
		out.Statusf("", "%d. %q x%d (avg %.1fms)", i+1, q.Query, q.Count, q.AvgLatencyMS)
	}
	out.Newline()

	out.Header("Top Terms")
	if len(s.TopTerms) == 0 {
		out.Status("", "(none recorded yet)")
	}
	for i, t := range s.TopTerms {
		out.Statusf("", "%d. %s (%d)", i+1, t.Term, t.Count)
	}
	out.Newline()

	out.Header("Recent Zero-Result Queries")
	if len(s.ZeroResultQueries) == 0 {
		out.Status("", "(none)")
	}
	for _, q := range s.ZeroResultQueries {
		out.Statusf("", "- %q", q)
	}
}
