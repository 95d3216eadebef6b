// Package search provides the hybrid precedent retriever.
// Documents are ranked by fusing a BM25 lexical score, an embedding cosine
// score and a metadata bonus derived from hints in the query.
package search

import (
	"context"
	"fmt"
	"math"

	lexerr "github.com/Aman-CERP/lexdebate/internal/errors"
)

// Document is a single case in the corpus. It is never mutated after load.
type Document struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Text         string   `json:"text"`
	Year         string   `json:"year"`
	Jurisdiction string   `json:"jurisdiction"`
	CaseType     string   `json:"case_type,omitempty"`
	Principles   []string `json:"principles,omitempty"`
	Outcome      string   `json:"outcome,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// searchText is what both indexes see for a document.
func (d Document) searchText() string {
	return d.Title + " " + d.Text
}

// Hint keys recognized by the metadata bonus.
const (
	HintCaseType     = "case_type"
	HintJurisdiction = "jurisdiction"
)

// Hints maps a hint key to its value.
type Hints map[string]string

// EmbedFunc turns text into a fixed-length vector.
// Timeouts and retries belong to whoever supplies the function.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// Result is one ranked document.
type Result struct {
	// Score is the fused score.
	Score float64 `json:"score"`

	// Index is the document's position in the corpus.
	Index int `json:"index"`

	Document Document `json:"document"`
}

// Response is what Search returns: the ranked documents and the hints
// that drove the metadata bonus.
type Response struct {
	Results []Result `json:"results"`
	Hints   Hints    `json:"hints"`
}

// Weights scales each signal in the fused score.
type Weights struct {
	// Lexical is the weight of the normalized BM25 score (default: 0.3).
	Lexical float64 `yaml:"lexical" json:"lexical"`

	// Semantic is the weight of the normalized cosine score (default: 0.4).
	Semantic float64 `yaml:"semantic" json:"semantic"`

	// Metadata is the weight of the metadata bonus (default: 0.3).
	Metadata float64 `yaml:"metadata" json:"metadata"`
}

// DefaultWeights returns the default fusion weights.
func DefaultWeights() Weights {
	return Weights{
		Lexical:  0.3,
		Semantic: 0.4,
		Metadata: 0.3,
	}
}

// Validate rejects negative or non-finite weights and an all-zero triple.
func (w Weights) Validate() error {
	named := []struct {
		name  string
		value float64
	}{{"lexical", w.Lexical}, {"semantic", w.Semantic}, {"metadata", w.Metadata}}
	for _, n := range named {
		if n.value < 0 || math.IsNaN(n.value) || math.IsInf(n.value, 0) {
			return invalidArgument(fmt.Sprintf("weight %s must be a finite non-negative number, got %v", n.name, n.value))
		}
	}
	if w.Lexical+w.Semantic+w.Metadata == 0 {
		return invalidArgument("at least one weight must be positive")
	}
	return nil
}

// Config holds the ranking parameters of a Retriever.
type Config struct {
	Weights Weights `yaml:"weights" json:"weights"`

	// CaseTypeBonus is added when the case_type hint matches (default: 1.0).
	CaseTypeBonus float64 `yaml:"case_type_bonus" json:"case_type_bonus"`

	// JurisdictionBonus is added when the jurisdiction hint matches (default: 0.5).
	JurisdictionBonus float64 `yaml:"jurisdiction_bonus" json:"jurisdiction_bonus"`

	Lexical LexicalConfig `yaml:"lexical" json:"lexical"`
}

// DefaultConfig returns the default ranking configuration.
func DefaultConfig() Config {
	return Config{
		Weights:           DefaultWeights(),
		CaseTypeBonus:     1.0,
		JurisdictionBonus: 0.5,
		Lexical:           DefaultLexicalConfig(),
	}
}

// MaxScore is the upper bound of a fused score under this config.
func (c Config) MaxScore() float64 {
	return c.Weights.Lexical + c.Weights.Semantic + c.Weights.Metadata*(c.CaseTypeBonus+c.JurisdictionBonus)
}

// Stats describes a built retriever.
type Stats struct {
	Documents    int     `json:"documents"`
	Terms        int     `json:"terms"`
	AvgDocLength float64 `json:"avg_doc_length"`
	Dimensions   int     `json:"dimensions"`
}

// Errors returned by the retriever. Compare with errors.Is.
var (
	ErrEmptyCorpus          = lexerr.New(lexerr.ErrCodeEmptyCorpus, "corpus has no documents", nil)
	ErrInvalidArgument      = lexerr.New(lexerr.ErrCodeInvalidInput, "invalid argument", nil)
	ErrEmbeddingUnavailable = lexerr.New(lexerr.ErrCodeEmbeddingUnavailable, "embedding unavailable", nil)
)

func emptyCorpus() error {
	return lexerr.New(lexerr.ErrCodeEmptyCorpus, "corpus has no documents", nil).
		WithSuggestion("Load at least one case before building the retriever")
}

func invalidArgument(msg string) error {
	return lexerr.New(lexerr.ErrCodeInvalidInput, msg, nil)
}

func embeddingUnavailable(msg string, cause error) error {
	return lexerr.New(lexerr.ErrCodeEmbeddingUnavailable, msg, cause)
}
