package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/lexdebate/internal/config"
	"github.com/Aman-CERP/lexdebate/internal/output"
)

func newConfigCmd(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage the lexdebate configuration.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/lexdebate/config.yaml)
  3. Project config (.lexdebate.yaml)
  4. Environment variables (LEXDEBATE_*)

--config replaces steps 2 and 3 with a single file.`,
		Example: `  # Create user config with the defaults
  lexdebate config init

  # Show effective configuration
  lexdebate config show

  # Print user config file path
  lexdebate config path`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd(global))
	cmd.AddCommand(newConfigPathCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool
	var path string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file with the defaults",
		Long: `Write the default configuration to the user config file, or to --path.
An existing file is kept unless --force is given, in which case it is
backed up first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path == "" {
				path = config.GetUserConfigPath()
			}
			out := output.New(cmd.OutOrStdout())

			backup, err := config.InitFile(path, force)
			if err != nil {
				return err
			}
			if backup != "" {
				out.Statusf("📦", "Backed up existing config to %s", backup)
			}
			out.Successf("Created %s", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file (a backup is kept)")
	cmd.Flags().StringVar(&path, "path", "", "Write here instead of the user config path")
	return cmd
}

func newConfigShowCmd(global *globalOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			}

			text, err := cfg.YAML()
			if err != nil {
				return err
			}
			out := output.New(cmd.OutOrStdout())
			out.Header("Effective configuration")
			out.Code(text)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the user config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			return err
		},
	}
}
