package mcp

// SearchInput defines the input schema for the search_precedents tool.
type SearchInput struct {
	Query        string `json:"query" jsonschema:"description of the case to find precedents for"`
	K            int    `json:"k,omitempty" jsonschema:"maximum number of precedents, default 3"`
	CaseType     string `json:"case_type,omitempty" jsonschema:"restrict the case type bonus, e.g. defamation, contract, tort"`
	Jurisdiction string `json:"jurisdiction,omitempty" jsonschema:"restrict the jurisdiction bonus, e.g. UK, US"`
}

// SearchOutput defines the output schema for the search_precedents tool.
type SearchOutput struct {
	Query   string            `json:"query"`
	Hints   map[string]string `json:"hints" jsonschema:"case type and jurisdiction detected in or given with the query"`
	Results []PrecedentOutput `json:"results" jsonschema:"precedents, best first"`
}

// PrecedentOutput is one ranked precedent.
type PrecedentOutput struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Text         string   `json:"text"`
	Year         string   `json:"year,omitempty"`
	Jurisdiction string   `json:"jurisdiction,omitempty"`
	CaseType     string   `json:"case_type,omitempty"`
	Principles   []string `json:"principles,omitempty"`
	Outcome      string   `json:"outcome,omitempty"`
	Score        float64  `json:"score" jsonschema:"fused relevance score"`
	Index        int      `json:"index" jsonschema:"position of the case in the corpus"`
	MatchedTerms []string `json:"matched_terms,omitempty" jsonschema:"query terms found in the case"`
	MatchReason  string   `json:"match_reason,omitempty" jsonschema:"human-readable explanation of the match"`
}

// GenerateCaseInput defines the input schema for the generate_case tool (no parameters).
type GenerateCaseInput struct{}

// CorpusStatusInput defines the input schema for the corpus_status tool (no parameters).
type CorpusStatusInput struct{}

// CorpusStatusOutput defines the output schema for the corpus_status tool.
type CorpusStatusOutput struct {
	Documents    int           `json:"documents"`
	Terms        int           `json:"terms"`
	AvgDocLength float64       `json:"avg_doc_length"`
	Generation   uint64        `json:"generation" jsonschema:"number of corpus builds published so far"`
	BuiltAt      string        `json:"built_at"`
	Embeddings   EmbeddingInfo `json:"embeddings"`
}

// EmbeddingInfo reports the embedder behind the semantic index.
type EmbeddingInfo struct {
	Model      string `json:"model"`
	Dimensions int    `json:"dimensions"`
	Status     string `json:"status"` // "ready", "unavailable" or "none"
	// IsFallbackActive is true for the hash-based static embedder.
	IsFallbackActive bool   `json:"is_fallback_active"`
	SemanticQuality  string `json:"semantic_quality"`
}
