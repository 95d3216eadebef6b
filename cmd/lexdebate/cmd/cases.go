package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/lexdebate/internal/corpus"
	"github.com/Aman-CERP/lexdebate/internal/debate"
	"github.com/Aman-CERP/lexdebate/internal/output"
)

func newCasesCmd(global *globalOptions) *cobra.Command {
	var corpusPath string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "cases",
		Short: "List the cases in the corpus",
		Long: `List the cases in the configured corpus, or the built-in sample when
corpus.path is empty. Records that fail to parse are counted as skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := loadCorpus(global, corpusPath)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(c.Documents)
			}

			out := output.New(cmd.OutOrStdout())
			out.Header(fmt.Sprintf("%d cases from %s (%s)", c.Len(), c.Source, c.Format))
			if c.Skipped > 0 {
				out.Warningf("%d records skipped", c.Skipped)
			}
			for _, d := range c.Documents {
				out.Statusf("", "%-8s %-40s %-6s %-12s %s", d.ID, d.Title, d.Year, d.Jurisdiction, d.CaseType)
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&corpusPath, "corpus", "", "Corpus file (overrides corpus.path)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	cmd.AddCommand(newCasesRandomCmd(global, &corpusPath))
	return cmd
}

func newCasesRandomCmd(global *globalOptions, corpusPath *string) *cobra.Command {
	var seed int64

	cmd := &cobra.Command{
		Use:   "random",
		Short: "Pick a random case to debate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := loadCorpus(global, *corpusPath)
			if err != nil {
				return err
			}
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			gen := debate.NewGenerator(seed)
			picked := gen.GenerateCase(c.Documents)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Case     debate.Case `json:"case"`
				Scenario string      `json:"scenario"`
			}{picked, gen.Scenario()})
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (default: clock)")
	return cmd
}

func loadCorpus(global *globalOptions, override string) (*corpus.Corpus, error) {
	cfg, err := loadConfig(global)
	if err != nil {
		return nil, err
	}
	if override != "" {
		cfg.Corpus.Path = override
	}
	return corpus.Load(cfg.Corpus.Path)
}
