package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/lexdebate/internal/mcp"
	"github.com/Aman-CERP/lexdebate/internal/output"
	"github.com/Aman-CERP/lexdebate/internal/search"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	k            int
	caseType     string
	jurisdiction string
	format       string // "text", "json", "markdown"
	corpusPath   string
	noHistory    bool
}

func newSearchCmd(global *globalOptions) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the precedent corpus",
		Long: `Search the precedent corpus with hybrid retrieval.

Each case is scored by BM25, by cosine similarity of embeddings, and by a
bonus when its case type or jurisdiction matches the one detected in the
query (or given with --case-type / --jurisdiction).`,
		Example: `  lexdebate search "parrot defamation UK"
  lexdebate search "breach of contract" -n 5 --jurisdiction US
  lexdebate search "negligent landlord" --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, global, query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.k, "limit", "n", 0, "Number of precedents (default: search.default_k)")
	cmd.Flags().StringVar(&opts.caseType, "case-type", "", "Case type hint, overrides detection")
	cmd.Flags().StringVar(&opts.jurisdiction, "jurisdiction", "", "Jurisdiction hint, overrides detection")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json, markdown")
	cmd.Flags().StringVar(&opts.corpusPath, "corpus", "", "Corpus file (overrides corpus.path)")
	cmd.Flags().BoolVar(&opts.noHistory, "no-history", false, "Do not record this search in the telemetry database")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, global *globalOptions, query string, opts searchOptions) error {
	switch opts.format {
	case "text", "json", "markdown":
	default:
		return fmt.Errorf("unknown format %q (use text, json or markdown)", opts.format)
	}

	cfg, err := loadConfig(global)
	if err != nil {
		return err
	}
	if opts.corpusPath != "" {
		cfg.Corpus.Path = opts.corpusPath
	}
	k := opts.k
	if !cmd.Flags().Changed("limit") {
		k = cfg.Search.DefaultK
	}

	a, err := newApp(ctx, cfg, appOptions{telemetry: !opts.noHistory})
	if err != nil {
		return err
	}
	defer a.Close()

	hints := search.Hints{}
	if opts.caseType != "" {
		hints[search.HintCaseType] = opts.caseType
	}
	if opts.jurisdiction != "" {
		hints[search.HintJurisdiction] = opts.jurisdiction
	}

	resp, err := a.holder.Search(ctx, query, k, hints)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch opts.format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Query string `json:"query"`
			*search.Response
		}{query, resp})
	case "markdown":
		_, err := fmt.Fprint(w, mcp.FormatPrecedents(query, resp))
		return err
	}

	out := output.New(w)
	if len(resp.Results) == 0 {
		out.Warningf("No precedents found for %q", query)
		return nil
	}
	out.Header(fmt.Sprintf("Precedents for %q", query))
	if ct := resp.Hints[search.HintCaseType]; ct != "" {
		out.Field("Case type", ct)
	}
	if j := resp.Hints[search.HintJurisdiction]; j != "" {
		out.Field("Jurisdiction", j)
	}
	out.Newline()
	for i, r := range resp.Results {
		out.Precedent(i+1, r)
		out.Newline()
	}
	return nil
}
