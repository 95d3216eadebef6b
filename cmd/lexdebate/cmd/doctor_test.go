package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoctorCmd_JSON(t *testing.T) {
	// Given: the test config with the static embedder
	env := newTestEnv(t)

	// When: running the checks
	out, err := env.run(t, "doctor", "--json")

	// Then: lexdebate can start, with a warning for static embeddings
	require.NoError(t, err)
	var report DoctorOutput
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "ready_with_warnings", report.Status)
	require.NotEmpty(t, report.Checks)
	assert.Equal(t, "config", report.Checks[0].Name)
}

func TestDoctorCmd_MissingCorpusFails(t *testing.T) {
	env := newTestEnv(t)

	t.Setenv("LEXDEBATE_CORPUS", filepath.Join(env.dir, "missing.json"))

	out, err := env.run(t, "doctor", "--skip-embedder")

	assert.ErrorIs(t, err, errChecksFailed)
	assert.Contains(t, out, "FAILED")
}

func TestDoctorCmd_TextReport(t *testing.T) {
	env := newTestEnv(t)
	corpusPath := filepath.Join(env.dir, "cases.json")
	require.NoError(t, os.WriteFile(corpusPath, []byte(`[{"id":"x1","title":"A v. B","text":"contract breach"}]`), 0o644))
	t.Setenv("LEXDEBATE_CORPUS", corpusPath)

	out, err := env.run(t, "doctor", "--skip-embedder", "-v")

	require.NoError(t, err)
	assert.Contains(t, out, "corpus: 1 cases")
	assert.Contains(t, out, "embedder: not configured")
}
