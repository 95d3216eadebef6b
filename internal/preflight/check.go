package preflight

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Aman-CERP/lexdebate/internal/config"
	"github.com/Aman-CERP/lexdebate/internal/embed"
	"github.com/Aman-CERP/lexdebate/internal/output"
)

// CheckStatus is the outcome of one check.
type CheckStatus int

const (
	StatusPass CheckStatus = iota
	StatusWarn
	StatusFail
	// StatusSkip marks a check that does not apply to the configuration.
	StatusSkip
)

// String returns the status as printed by `lexdebate doctor`.
func (s CheckStatus) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusWarn:
		return "WARN"
	case StatusFail:
		return "FAIL"
	case StatusSkip:
		return "SKIP"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the status as its name.
func (s CheckStatus) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(s.String())), nil
}

// UnmarshalText decodes a status name.
func (s *CheckStatus) UnmarshalText(text []byte) error {
	for _, st := range []CheckStatus{StatusPass, StatusWarn, StatusFail, StatusSkip} {
		if strings.EqualFold(string(text), st.String()) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown check status %q", text)
}

// CheckResult is the result of a single check.
type CheckResult struct {
	Name     string      `json:"name"`
	Status   CheckStatus `json:"status"`
	Message  string      `json:"message"`
	Details  string      `json:"details,omitempty"`
	Required bool        `json:"required"`
}

// IsCritical reports whether a required check failed.
func (r CheckResult) IsCritical() bool {
	return r.Required && r.Status == StatusFail
}

// Target is what RunAll checks. A nil Embedder skips the embedder check.
type Target struct {
	Config   *config.Config
	Embedder embed.Embedder
}

// Checker runs the checks.
type Checker struct {
	verbose bool
	output  io.Writer
}

// Option configures a Checker.
type Option func(*Checker)

// WithVerbose prints check details.
func WithVerbose(verbose bool) Option {
	return func(c *Checker) {
		c.verbose = verbose
	}
}

// WithOutput sets where PrintResults writes.
func WithOutput(w io.Writer) Option {
	return func(c *Checker) {
		c.output = w
	}
}

// New creates a Checker.
func New(opts ...Option) *Checker {
	c := &Checker{output: os.Stdout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunAll runs every check for t, in a fixed order.
func (c *Checker) RunAll(ctx context.Context, t Target) []CheckResult {
	cfg := t.Config
	if cfg == nil {
		cfg = config.NewConfig()
	}

	results := []CheckResult{
		c.CheckConfig(cfg),
		c.CheckCorpus(cfg.Corpus.Path),
		c.CheckEmbedder(ctx, t.Embedder),
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBPath != "" {
		results = append(results, c.CheckWritable("telemetry_dir", filepath.Dir(cfg.Telemetry.DBPath), false))
		results = append(results, c.CheckDiskSpace(filepath.Dir(cfg.Telemetry.DBPath)))
	}
	if cfg.Server.SnapshotPath != "" {
		results = append(results, c.CheckWritable("snapshot_dir", filepath.Dir(cfg.Server.SnapshotPath), true))
	}
	if cfg.Logging.File != "" {
		results = append(results, c.CheckWritable("log_dir", filepath.Dir(cfg.Logging.File), true))
	}
	if cfg.Corpus.Watch && cfg.Corpus.Path != "" {
		results = append(results, c.CheckFileDescriptors())
	}
	return results
}

// HasCriticalFailures reports whether any required check failed.
func (c *Checker) HasCriticalFailures(results []CheckResult) bool {
	for _, r := range results {
		if r.IsCritical() {
			return true
		}
	}
	return false
}

// SummaryStatus returns "failed", "ready_with_warnings" or "ready".
func (c *Checker) SummaryStatus(results []CheckResult) string {
	warned := false
	for _, r := range results {
		if r.IsCritical() {
			return "failed"
		}
		if r.Status == StatusWarn || r.Status == StatusFail {
			warned = true
		}
	}
	if warned {
		return "ready_with_warnings"
	}
	return "ready"
}

// PrintResults writes results and a summary line.
func (c *Checker) PrintResults(results []CheckResult) {
	out := output.New(c.output)
	out.Header("lexdebate system check")

	for _, r := range results {
		line := fmt.Sprintf("%s: %s", r.Name, r.Message)
		switch {
		case r.Status == StatusPass:
			out.Success(line)
		case r.Status == StatusSkip:
			out.Status("-", line)
		case r.IsCritical():
			out.Error(line)
		default:
			out.Warning(line)
		}
		if c.verbose && r.Details != "" {
			out.Statusf("", "   %s", r.Details)
		}
	}

	out.Newline()
	out.Field("Status", strings.ToUpper(c.SummaryStatus(results)))
}

// CheckConfig validates cfg.
func (c *Checker) CheckConfig(cfg *config.Config) CheckResult {
	result := CheckResult{Name: "config", Required: true}
	if err := cfg.Validate(); err != nil {
		result.Status = StatusFail
		result.Message = err.Error()
		return result
	}
	result.Status = StatusPass
	result.Message = "valid"
	return result
}

// CheckWritable creates dir if needed and writes a probe file in it.
func (c *Checker) CheckWritable(name, dir string, required bool) CheckResult {
	result := CheckResult{Name: name, Required: required, Details: dir}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot create %s: %v", dir, err)
		return result
	}
	f, err := os.CreateTemp(dir, ".lexdebate-preflight-*")
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("permission denied: %v", err)
		return result
	}
	_ = f.Close()
	_ = os.Remove(f.Name())

	result.Status = StatusPass
	result.Message = "writable"
	return result
}
