package cmd

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/lexdebate/internal/embed"
	"github.com/Aman-CERP/lexdebate/internal/preflight"
)

// errChecksFailed makes doctor exit non-zero after printing its report.
var errChecksFailed = errors.New("one or more required checks failed")

// DoctorOutput is the JSON output of `lexdebate doctor`.
type DoctorOutput struct {
	Status string                  `json:"status"`
	Checks []preflight.CheckResult `json:"checks"`
}

func newDoctorCmd(global *globalOptions) *cobra.Command {
	var verbose bool
	var jsonOutput bool
	var skipEmbedder bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that lexdebate can start with the current configuration",
		Long: `Run the startup checks without starting the server:
  - Configuration validity
  - Corpus loads (records skipped are reported)
  - Embedder answers with vectors of the configured size
  - Telemetry, snapshot and log directories are writable
  - Disk space and file descriptor limits

Exits non-zero when a required check fails.`,
		Example: `  lexdebate doctor
  lexdebate doctor --verbose
  lexdebate doctor --json --skip-embedder`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}

			target := preflight.Target{Config: cfg}
			if !skipEmbedder {
				emb, err := embed.NewEmbedder(embedderConfig(cfg))
				if err != nil {
					return err
				}
				defer func() { _ = emb.Close() }()
				target.Embedder = emb
			}

			checker := preflight.New(
				preflight.WithOutput(cmd.OutOrStdout()),
				preflight.WithVerbose(verbose))
			results := checker.RunAll(cmd.Context(), target)

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(DoctorOutput{Status: checker.SummaryStatus(results), Checks: results}); err != nil {
					return err
				}
			} else {
				checker.PrintResults(results)
			}

			if checker.HasCriticalFailures(results) {
				return errChecksFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show check details")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&skipEmbedder, "skip-embedder", false, "Do not probe the embedding provider")
	return cmd
}
