// Package cmd provides the CLI commands for lexdebate.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/lexdebate/internal/config"
	lexerr "github.com/Aman-CERP/lexdebate/internal/errors"
	"github.com/Aman-CERP/lexdebate/internal/logging"
	"github.com/Aman-CERP/lexdebate/pkg/version"
)

// globalOptions holds the persistent flags.
type globalOptions struct {
	configPath string
	debug      bool
	logFile    string
}

// NewRootCmd creates the root command for the lexdebate CLI.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}
	var loggingCleanup func()

	cmd := &cobra.Command{
		Use:   "lexdebate",
		Short: "Legal debate simulator with hybrid precedent retrieval",
		Long: `lexdebate serves a courtroom debate simulator. Cases are retrieved from a
precedent corpus by combining BM25 keyword scores, embedding similarity and
case type / jurisdiction hints detected in the query.

Run 'lexdebate serve' to start the HTTP API, or 'lexdebate search' to query
the corpus from the terminal.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// serve configures its own logging once it knows the transport.
			if cmd.Name() == "serve" {
				return nil
			}
			cleanup, err := setupLogging(opts, nil, false)
			loggingCleanup = cleanup
			return err
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if loggingCleanup != nil {
				loggingCleanup()
				loggingCleanup = nil
			}
			return nil
		},
	}

	cmd.SetVersionTemplate("lexdebate version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default: user config, then ./.lexdebate.yaml)")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "Write logs to this file instead of stderr")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newSearchCmd(opts))
	cmd.AddCommand(newCasesCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	cmd.AddCommand(newStatsCmd(opts))
	cmd.AddCommand(newDoctorCmd(opts))
	cmd.AddCommand(newLogsCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	cmd := NewRootCmd()
	err := cmd.ExecuteContext(context.Background())
	if err != nil {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), lexerr.FormatForCLI(err))
	}
	return err
}

// loadConfig loads --config if given, else the layered configuration.
func loadConfig(opts *globalOptions) (*config.Config, error) {
	if opts.configPath != "" {
		return config.LoadFile(opts.configPath)
	}
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return config.Load(cwd)
}

// setupLogging installs the default slog logger. cfg may be nil, in which
// case only flags and defaults apply. fileOnly keeps logs off stderr, for
// stdio transports.
func setupLogging(opts *globalOptions, cfg *config.Config, fileOnly bool) (func(), error) {
	lc := logging.DefaultConfig()
	if cfg != nil {
		lc.Level = cfg.Logging.Level
		lc.FilePath = cfg.Logging.File
		lc.MaxSizeMB = cfg.Logging.MaxSizeMB
		lc.MaxFiles = cfg.Logging.MaxFiles
	} else {
		lc.Level = "warn"
	}
	if opts.debug {
		lc.Level = "debug"
	}
	if opts.logFile != "" {
		lc.FilePath = opts.logFile
	}
	if fileOnly {
		if lc.FilePath == "" {
			lc.FilePath = logging.DefaultLogPath()
		}
		lc.WriteToStderr = false
	} else if lc.FilePath != "" {
		lc.WriteToStderr = false
	}

	cleanup, err := logging.SetupDefault(lc)
	if err != nil {
		return cleanup, fmt.Errorf("failed to set up logging: %w", err)
	}
	slog.Debug("logging_configured",
		slog.String("level", lc.Level),
		slog.String("file", lc.FilePath))
	return cleanup, nil
}
