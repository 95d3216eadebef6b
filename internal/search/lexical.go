package search

import (
	"math"
	"sort"
)

// LexicalConfig configures BM25 scoring.
type LexicalConfig struct {
	// K1 controls term frequency saturation (default: 1.5).
	K1 float64 `yaml:"k1" json:"k1"`

	// B controls document length normalization (default: 0.75).
	B float64 `yaml:"b" json:"b"`

	// Epsilon floors negative IDF values to Epsilon * mean IDF (default: 0.25).
	Epsilon float64 `yaml:"epsilon" json:"epsilon"`
}

// DefaultLexicalConfig returns the Okapi BM25 defaults.
func DefaultLexicalConfig() LexicalConfig {
	return LexicalConfig{
		K1:      1.5,
		B:       0.75,
		Epsilon: 0.25,
	}
}

type posting struct {
	doc int
	tf  int
}

// LexicalIndex is an immutable BM25 index over a corpus.
type LexicalIndex struct {
	cfg      LexicalConfig
	postings map[string][]posting
	idf      map[string]float64
	docLen   []int
	avgLen   float64
}

// BuildLexicalIndex tokenizes title and text of every document and
// computes the term statistics BM25 needs.
func BuildLexicalIndex(docs []Document, cfg LexicalConfig) (*LexicalIndex, error) {
	if len(docs) == 0 {
		return nil, emptyCorpus()
	}

	idx := &LexicalIndex{
		cfg:      cfg,
		postings: make(map[string][]posting),
		docLen:   make([]int, len(docs)),
	}

	total := 0
	for i, d := range docs {
		tokens := Tokenize(d.searchText())
		idx.docLen[i] = len(tokens)
		total += len(tokens)

		freqs := make(map[string]int, len(tokens))
		order := make([]string, 0, len(tokens))
		for _, tok := range tokens {
			if freqs[tok] == 0 {
				order = append(order, tok)
			}
			freqs[tok]++
		}
		for _, tok := range order {
			idx.postings[tok] = append(idx.postings[tok], posting{doc: i, tf: freqs[tok]})
		}
	}
	idx.avgLen = float64(total) / float64(len(docs))
	idx.idf = computeIDF(idx.postings, len(docs), cfg.Epsilon)

	return idx, nil
}

// computeIDF uses log((N - n + 0.5) / (n + 0.5)). Terms present in more
// than half the corpus would score negative; those are floored to
// epsilon times the mean IDF so common terms never penalize a match.
func computeIDF(postings map[string][]posting, n int, epsilon float64) map[string]float64 {
	idf := make(map[string]float64, len(postings))
	if len(postings) == 0 {
		return idf
	}

	// Sorted so the floating point sum is identical across runs.
	terms := make([]string, 0, len(postings))
	for term := range postings {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	sum := 0.0
	var negative []string
	for _, term := range terms {
		df := float64(len(postings[term]))
		v := math.Log(float64(n)-df+0.5) - math.Log(df+0.5)
		idf[term] = v
		sum += v
		if v < 0 {
			negative = append(negative, term)
		}
	}

	floor := epsilon * sum / float64(len(idf))
	for _, term := range negative {
		idf[term] = floor
	}
	return idf
}

// Score returns the BM25 score of query against every document, aligned
// with corpus order. Repeated query terms count once; unknown terms add nothing.
func (l *LexicalIndex) Score(query string) []float64 {
	scores := make([]float64, len(l.docLen))
	k1, b := l.cfg.K1, l.cfg.B

	for _, term := range uniqueTerms(Tokenize(query)) {
		postings, ok := l.postings[term]
		if !ok {
			continue
		}
		idf := l.idf[term]
		for _, p := range postings {
			tf := float64(p.tf)
			norm := 1 - b + b*float64(l.docLen[p.doc])/l.avgLen
			scores[p.doc] += idf * tf * (k1 + 1) / (tf + k1*norm)
		}
	}
	return scores
}

// Len returns the number of indexed documents.
func (l *LexicalIndex) Len() int {
	return len(l.docLen)
}

// Terms returns the vocabulary size.
func (l *LexicalIndex) Terms() int {
	return len(l.postings)
}

// AvgDocLength returns the mean token count per document.
func (l *LexicalIndex) AvgDocLength() float64 {
	return l.avgLen
}
