package output

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Aman-CERP/lexdebate/internal/search"
)

func TestWriter_StatusLines(t *testing.T) {
	tests := []struct {
		name  string
		write func(w *Writer)
		want  string
	}{
		{"status with icon", func(w *Writer) { w.Status("🔍", "Loading corpus...") }, "🔍 Loading corpus...\n"},
		{"status without icon", func(w *Writer) { w.Status("", "indented") }, "   indented\n"},
		{"success", func(w *Writer) { w.Successf("Loaded %d cases", 12) }, "✅ Loaded 12 cases\n"},
		{"warning", func(w *Writer) { w.Warning("Embedder not available") }, "⚠️  Embedder not available\n"},
		{"error", func(w *Writer) { w.Errorf("failed: %s", "boom") }, "❌ failed: boom\n"},
		{"header", func(w *Writer) { w.Header("Precedents") }, "Precedents\n"},
		{"field", func(w *Writer) { w.Field("Documents", 12) }, "  Documents:     12\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: a plain writer over a buffer
			buf := &bytes.Buffer{}
			w := NewWithColor(buf, false)

			// When: writing
			tt.write(w)

			// Then: the text is unstyled
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestNew_BufferIsNotATerminal(t *testing.T) {
	w := New(&bytes.Buffer{})

	assert.False(t, w.Color())
}

func TestIsTTY(t *testing.T) {
	assert.False(t, IsTTY(&bytes.Buffer{}))
	assert.False(t, IsTTY(nil))

	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()
	assert.False(t, IsTTY(f))
}

func TestDetectNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	assert.True(t, DetectNoColor())
}

func TestWriter_Code(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewWithColor(buf, false)

	w.Code("a: 1\nb: 2\n")

	assert.Equal(t, "\n  a: 1\n  b: 2\n\n", buf.String())
}

func TestWriter_Precedent(t *testing.T) {
	// Given: a parrot precedent
	buf := &bytes.Buffer{}
	w := NewWithColor(buf, false)
	r := search.Result{
		Score: 1.25,
		Document: search.Document{
			ID:           "c001",
			Title:        "Polly v. Hargreaves",
			Text:         "A parrot slandered a shopkeeper.",
			Year:         "1998",
			Jurisdiction: "UK",
			CaseType:     "defamation",
			Principles:   []string{"publication requires a third party"},
		},
	}

	// When: printing it
	w.Precedent(1, r)

	// Then: title, score, metadata and principles appear in order
	assert.Equal(t,
		"1. Polly v. Hargreaves (1.250)\n"+
			"   c001 | 1998 | UK | defamation\n"+
			"   A parrot slandered a shopkeeper.\n"+
			"   - publication requires a third party\n",
		buf.String())
}

func TestBar(t *testing.T) {
	assert.Equal(t, "░░░░", Bar(1, 0, 4))
	assert.Equal(t, "██░░", Bar(1, 2, 4))
	assert.Equal(t, "████", Bar(9, 2, 4))
	assert.Equal(t, "░░░░", Bar(-1, 2, 4))
}
