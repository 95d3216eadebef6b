package search

import (
	"maps"
	"strings"
)

// HintRule sets Key to Value when any of Terms appears in the query.
// Terms are matched against whole tokens; with Prefix a token only needs
// to start with the term ("contracts" matches "contract").
type HintRule struct {
	Key    string
	Value  string
	Terms  []string
	Prefix bool
}

// DefaultHintRules returns the built-in rule table. Later rules overwrite
// earlier ones that write the same key.
func DefaultHintRules() []HintRule {
	return []HintRule{
		{Key: HintCaseType, Value: "defamation", Terms: []string{"defamation"}, Prefix: true},
		{Key: HintCaseType, Value: "contract", Terms: []string{"contract"}, Prefix: true},
		{Key: HintCaseType, Value: "tort", Terms: []string{"tort", "negligence"}, Prefix: true},
		{Key: HintJurisdiction, Value: "UK", Terms: []string{"uk"}},
		{Key: HintJurisdiction, Value: "US", Terms: []string{"us", "usa"}},
	}
}

// HintExtractor infers hints from query text using a fixed rule table.
type HintExtractor struct {
	rules []HintRule
}

// NewHintExtractor creates an extractor. Nil rules means DefaultHintRules.
func NewHintExtractor(rules []HintRule) *HintExtractor {
	if rules == nil {
		rules = DefaultHintRules()
	}
	normalized := make([]HintRule, len(rules))
	for i, r := range rules {
		terms := make([]string, len(r.Terms))
		for j, t := range r.Terms {
			terms[j] = strings.ToLower(t)
		}
		r.Terms = terms
		normalized[i] = r
	}
	return &HintExtractor{rules: normalized}
}

// Extract returns the hints that fire for text, or an empty map.
func (h *HintExtractor) Extract(text string) Hints {
	hints := Hints{}
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return hints
	}

	for _, rule := range h.rules {
		if rule.matches(tokens) {
			hints[rule.Key] = rule.Value
		}
	}
	return hints
}

func (r HintRule) matches(tokens []string) bool {
	for _, tok := range tokens {
		for _, term := range r.Terms {
			if tok == term || (r.Prefix && strings.HasPrefix(tok, term)) {
				return true
			}
		}
	}
	return false
}

var defaultExtractor = NewHintExtractor(nil)

// ExtractHints applies DefaultHintRules to text.
func ExtractHints(text string) Hints {
	return defaultExtractor.Extract(text)
}

// MergeHints overlays explicit on extracted. Explicit values win; empty
// explicit values are ignored. Neither input is modified.
func MergeHints(extracted, explicit Hints) Hints {
	merged := make(Hints, len(extracted)+len(explicit))
	maps.Copy(merged, extracted)
	for k, v := range explicit {
		if v == "" {
			continue
		}
		merged[k] = v
	}
	return merged
}
