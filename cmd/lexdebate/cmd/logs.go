package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/lexdebate/internal/logging"
)

type logsOptions struct {
	lines  int
	level  string
	filter string
	file   string
}

func newLogsCmd(global *globalOptions) *cobra.Command {
	var opts logsOptions

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent log entries",
		Long: `Show the last entries of the lexdebate log file. Logs go to a file when
logging.file or --log-file is set, and always for 'serve --mcp'.`,
		Example: `  lexdebate logs
  lexdebate logs -n 100 --level warn
  lexdebate logs --filter corpus_`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			explicit := opts.file
			if explicit == "" {
				explicit = global.logFile
			}
			path, err := logging.FindLogFile(explicit)
			if err != nil {
				return err
			}

			var pattern *regexp.Regexp
			if opts.filter != "" {
				if pattern, err = regexp.Compile(opts.filter); err != nil {
					return fmt.Errorf("invalid filter pattern: %w", err)
				}
			}

			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Log file: %s\n---\n", path)
			for _, line := range tailLogs(f, opts.lines, opts.level, pattern) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.lines, "lines", "n", 50, "Number of entries to show")
	cmd.Flags().StringVar(&opts.level, "level", "", "Minimum level (debug|info|warn|error)")
	cmd.Flags().StringVar(&opts.filter, "filter", "", "Only entries matching this regex")
	cmd.Flags().StringVar(&opts.file, "file", "", "Log file (default: --log-file, then ~/.lexdebate/logs/lexdebate.log)")
	return cmd
}

// tailLogs returns the last n formatted entries of r at or above level
// that match pattern.
func tailLogs(r io.Reader, n int, level string, pattern *regexp.Regexp) []string {
	minLevel := logging.ParseLevel(level)
	var kept []string

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		raw := sc.Text()
		if strings.TrimSpace(raw) == "" {
			continue
		}
		line, lvl := formatLogLine(raw)
		if level != "" && logging.ParseLevel(lvl) < minLevel {
			continue
		}
		if pattern != nil && !pattern.MatchString(raw) {
			continue
		}
		kept = append(kept, line)
		if n > 0 && len(kept) > n {
			kept = kept[1:]
		}
	}
	return kept
}

// formatLogLine renders a JSON log record as "time LEVEL msg k=v ...".
// Lines that are not JSON are returned as they are.
func formatLogLine(raw string) (string, string) {
	var rec map[string]any
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return raw, ""
	}

	ts, _ := rec["time"].(string)
	if len(ts) >= 19 {
		ts = strings.Replace(ts[:19], "T", " ", 1)
	}
	lvl, _ := rec["level"].(string)
	msg, _ := rec["msg"].(string)

	keys := make([]string, 0, len(rec))
	for k := range rec {
		switch k {
		case "time", "level", "msg":
		default:
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %-5s %s", ts, lvl, msg)
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, rec[k])
	}
	return sb.String(), lvl
}
