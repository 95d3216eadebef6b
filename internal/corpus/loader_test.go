package corpus

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lexerr "github.com/Aman-CERP/lexdebate/internal/errors"
)

func TestParse_JSONL(t *testing.T) {
	// Given: JSONL with a blank line, a malformed line and mixed id/year types
	input := `{"id": 7, "title": "A", "text": "parrot defamation claim", "year": 1998, "jurisdiction": "UK", "case_type": "defamation"}

not json at all
{"title": "B", "text": "contract breach dispute", "year": "2001", "jurisdiction": "US", "principles": "offer and acceptance"}
`

	// When: parsing
	c, err := Parse(strings.NewReader(input), FormatJSONL)

	// Then: good lines load, the bad one is counted
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())
	assert.Equal(t, 1, c.Skipped)

	a := c.Documents[0]
	assert.Equal(t, "7", a.ID)
	assert.Equal(t, "1998", a.Year)
	assert.Equal(t, "defamation", a.CaseType)

	b := c.Documents[1]
	assert.Equal(t, "case-1", b.ID, "missing id defaults to position in the loaded corpus")
	assert.Equal(t, "2001", b.Year)
	assert.Equal(t, []string{"offer and acceptance"}, b.Principles)
	assert.Empty(t, b.CaseType)
	assert.Nil(t, b.Tags)
}

func TestParse_JSONArray(t *testing.T) {
	input := `[
		{"id": "x", "title": "A", "text": "one"},
		{"id": ["bad"], "title": "B"},
		{"title": "C", "tags": ["t1", "t2"], "year": null}
	]`

	c, err := Parse(strings.NewReader(input), FormatJSON)

	require.NoError(t, err)
	require.Equal(t, 2, c.Len())
	assert.Equal(t, 1, c.Skipped)
	assert.Equal(t, "x", c.Documents[0].ID)
	assert.Equal(t, "case-1", c.Documents[1].ID)
	assert.Equal(t, []string{"t1", "t2"}, c.Documents[1].Tags)
	assert.Empty(t, c.Documents[1].Year)
}

func TestParse_MalformedArray(t *testing.T) {
	_, err := Parse(strings.NewReader(`[{"id": 1},`), FormatJSON)

	require.Error(t, err)
	assert.Equal(t, lexerr.ErrCodeCorpusMalformed, lexerr.GetCode(err))
	assert.True(t, lexerr.IsFatal(err))
}

func TestParse_AutoDetect(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Format
	}{
		{"array", `  [{"title": "A"}]`, FormatJSON},
		{"lines", `{"title": "A"}` + "\n" + `{"title": "B"}`, FormatJSONL},
		{"empty", ``, FormatJSONL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Parse(strings.NewReader(tt.input), FormatAuto)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Format)
		})
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cases.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"title": "A", "text": "t"}]`), 0o644))

	c, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, path, c.Source)
	assert.Equal(t, FormatJSON, c.Format)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.jsonl"))

	require.Error(t, err)
	assert.Equal(t, lexerr.ErrCodeFileNotFound, lexerr.GetCode(err))
	le, ok := lexerr.As(err)
	require.True(t, ok)
	assert.NotEmpty(t, le.Details["path"])
}

func TestLoad_EmptyPathUsesSample(t *testing.T) {
	c, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, SampleSource, c.Source)
	assert.Equal(t, 0, c.Skipped)
	assert.GreaterOrEqual(t, c.Len(), 10)

	ids := make(map[string]bool)
	for _, d := range c.Documents {
		assert.NotEmpty(t, d.Title)
		assert.NotEmpty(t, d.Text)
		assert.False(t, ids[d.ID], "duplicate id %s", d.ID)
		ids[d.ID] = true
	}
}

func TestDocumentsOrPlaceholder(t *testing.T) {
	empty := &Corpus{}
	docs := empty.DocumentsOrPlaceholder()
	require.Len(t, docs, 1)
	assert.Equal(t, "No precedents available", docs[0].Title)

	full := Sample()
	assert.Equal(t, full.Documents, full.DocumentsOrPlaceholder())
}
