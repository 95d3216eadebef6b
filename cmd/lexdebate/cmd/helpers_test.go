package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// testEnv isolates a command run from the developer's own config and
// data directories.
type testEnv struct {
	dir        string
	configPath string
	dbPath     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("LEXDEBATE_TELEMETRY", "")
	t.Setenv("LEXDEBATE_CORPUS", "")
	t.Setenv("LEXDEBATE_EMBEDDER", "")

	env := &testEnv{
		dir:        dir,
		configPath: filepath.Join(dir, "config.yaml"),
		dbPath:     filepath.Join(dir, "data", "telemetry.db"),
	}
	cfg := fmt.Sprintf(`version: 1
embeddings:
  provider: static
  dimensions: 64
telemetry:
  enabled: true
  db_path: %s
logging:
  level: error
`, env.dbPath)
	require.NoError(t, os.WriteFile(env.configPath, []byte(cfg), 0o644))
	return env
}

// run executes the root command with args and returns stdout.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := root.Execute()
	return out.String(), err
}
