// Package corpus loads case documents from JSON or JSON-Lines files.
package corpus

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	lexerr "github.com/Aman-CERP/lexdebate/internal/errors"
	"github.com/Aman-CERP/lexdebate/internal/search"
)

// Format is the on-disk corpus encoding.
type Format int

const (
	// FormatAuto picks the format from the extension, then from content.
	FormatAuto Format = iota
	// FormatJSON is a single JSON array of cases.
	FormatJSON
	// FormatJSONL is one JSON object per line.
	FormatJSONL
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatJSONL:
		return "jsonl"
	default:
		return "auto"
	}
}

// SampleSource names the embedded corpus in Corpus.Source.
const SampleSource = "builtin:cases.jsonl"

// maxLineSize bounds a single JSONL record.
const maxLineSize = 4 << 20

//go:embed sample/cases.jsonl
var sampleCases []byte

// Corpus is a loaded document set.
type Corpus struct {
	Documents []search.Document
	// Skipped counts records that could not be parsed.
	Skipped int
	Source  string
	Format  Format
}

// Len returns the number of documents.
func (c *Corpus) Len() int {
	return len(c.Documents)
}

// Load reads the corpus at path. An empty path loads the built-in sample.
func Load(path string) (*Corpus, error) {
	if path == "" {
		return Sample(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		code := lexerr.ErrCodeFileNotFound
		if os.IsPermission(err) {
			code = lexerr.ErrCodeFilePermission
		}
		return nil, lexerr.New(code, "failed to open corpus", err).
			WithDetail("path", path).
			WithSuggestion("Check the corpus.path setting or LEXDEBATE_CORPUS")
	}
	defer func() { _ = f.Close() }()

	c, err := Parse(f, formatFromPath(path))
	if err != nil {
		if le, ok := lexerr.As(err); ok {
			return nil, le.WithDetail("path", path)
		}
		return nil, err
	}
	c.Source = path

	slog.Info("corpus_loaded",
		slog.String("path", path),
		slog.String("format", c.Format.String()),
		slog.Int("documents", c.Len()),
		slog.Int("skipped", c.Skipped))
	return c, nil
}

// Sample returns the built-in corpus.
func Sample() *Corpus {
	c, err := Parse(bytes.NewReader(sampleCases), FormatJSONL)
	if err != nil {
		// The embedded file is part of the build.
		panic(fmt.Sprintf("corpus: embedded sample is invalid: %v", err))
	}
	c.Source = SampleSource
	return c
}

// Placeholder is the single document served when a corpus is empty, so
// that the retriever always has something to build over.
func Placeholder() search.Document {
	return search.Document{
		ID:           "case-0",
		Title:        "No precedents available",
		Text:         "The corpus is empty. No precedent can be cited.",
		Year:         "N/A",
		Jurisdiction: "Unknown",
		Tags:         []string{"empty"},
	}
}

// DocumentsOrPlaceholder returns the documents, or the placeholder alone
// when there are none.
func (c *Corpus) DocumentsOrPlaceholder() []search.Document {
	if len(c.Documents) == 0 {
		return []search.Document{Placeholder()}
	}
	return c.Documents
}

// Parse decodes a corpus from r.
func Parse(r io.Reader, format Format) (*Corpus, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, lexerr.New(lexerr.ErrCodeFileNotFound, "failed to read corpus", err)
	}

	if format == FormatAuto {
		format = sniffFormat(data)
	}

	c := &Corpus{Format: format}
	switch format {
	case FormatJSON:
		err = c.parseArray(data)
	default:
		err = c.parseLines(data)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Corpus) parseArray(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return lexerr.New(lexerr.ErrCodeCorpusMalformed, "corpus is not a JSON array", err)
	}
	for i, msg := range raw {
		c.add(msg, i+1)
	}
	return nil
}

func (c *Corpus) parseLines(data []byte) error {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		c.add(text, line)
	}
	if err := sc.Err(); err != nil {
		return lexerr.New(lexerr.ErrCodeCorpusMalformed, "failed to scan corpus", err).
			WithDetail("line", strconv.Itoa(line+1))
	}
	return nil
}

// add decodes one record and appends it, or counts it as skipped.
func (c *Corpus) add(msg []byte, position int) {
	var rec record
	if err := json.Unmarshal(msg, &rec); err != nil {
		c.Skipped++
		slog.Warn("corpus_record_skipped",
			slog.Int("position", position),
			slog.String("error", err.Error()))
		return
	}
	c.Documents = append(c.Documents, rec.document(len(c.Documents)))
}

// record is the permissive on-disk shape of a case.
type record struct {
	ID           flexString  `json:"id"`
	Title        string      `json:"title"`
	Text         string      `json:"text"`
	Year         flexString  `json:"year"`
	Jurisdiction string      `json:"jurisdiction"`
	CaseType     string      `json:"case_type"`
	Principles   flexStrings `json:"principles"`
	Outcome      string      `json:"outcome"`
	Tags         flexStrings `json:"tags"`
}

func (r record) document(index int) search.Document {
	id := string(r.ID)
	if id == "" {
		id = "case-" + strconv.Itoa(index)
	}
	return search.Document{
		ID:           id,
		Title:        r.Title,
		Text:         r.Text,
		Year:         string(r.Year),
		Jurisdiction: r.Jurisdiction,
		CaseType:     r.CaseType,
		Principles:   []string(r.Principles),
		Outcome:      r.Outcome,
		Tags:         []string(r.Tags),
	}
}

// flexString accepts a JSON string, number or null.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*s = flexString(n.String())
	return nil
}

// flexStrings accepts a list of strings or a single string.
type flexStrings []string

func (s *flexStrings) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*s = nil
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexStrings{v}
		return nil
	}
	var v []string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*s = v
	return nil
}

func formatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".jsonl", ".ndjson":
		return FormatJSONL
	default:
		return FormatAuto
	}
}

// sniffFormat treats content starting with '[' as a JSON array.
func sniffFormat(data []byte) Format {
	if t := bytes.TrimSpace(data); len(t) > 0 && t[0] == '[' {
		return FormatJSON
	}
	return FormatJSONL
}
