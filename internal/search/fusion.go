package search

import (
	"cmp"
	"slices"
)

// NormalizeEpsilon keeps min-max normalization finite when every score is equal.
const NormalizeEpsilon = 1e-9

// Normalize min-max scales scores into [0, 1] as (x-min)/(max-min+ε).
// When all scores are equal every output is 0.
func Normalize(scores []float64) []float64 {
	out := make([]float64, len(scores))
	if len(scores) == 0 {
		return out
	}

	lo, hi := scores[0], scores[0]
	for _, s := range scores[1:] {
		lo = min(lo, s)
		hi = max(hi, s)
	}

	span := hi - lo + NormalizeEpsilon
	for i, s := range scores {
		out[i] = (s - lo) / span
	}
	return out
}

// MetadataBonus scores how well doc matches hints: CaseTypeBonus for a
// case_type match plus JurisdictionBonus for a jurisdiction match.
func MetadataBonus(doc Document, hints Hints, cfg Config) float64 {
	bonus := 0.0
	if v, ok := hints[HintCaseType]; ok && v != "" && v == doc.CaseType {
		bonus += cfg.CaseTypeBonus
	}
	if v, ok := hints[HintJurisdiction]; ok && v != "" && v == doc.Jurisdiction {
		bonus += cfg.JurisdictionBonus
	}
	return bonus
}

// Fuse combines the raw lexical and semantic score vectors with the
// metadata bonus and returns every document ranked by fused score.
// Ties go to the lower corpus index.
func Fuse(lexical, semantic []float64, docs []Document, hints Hints, cfg Config) []Result {
	lexNorm := Normalize(lexical)
	semNorm := Normalize(semantic)
	w := cfg.Weights

	results := make([]Result, len(docs))
	for i, d := range docs {
		results[i] = Result{
			Score: w.Lexical*lexNorm[i] +
				w.Semantic*semNorm[i] +
				w.Metadata*MetadataBonus(d, hints, cfg),
			Index:    i,
			Document: d,
		}
	}

	slices.SortFunc(results, compareResults)
	return results
}

// compareResults orders by score descending, then corpus index ascending.
func compareResults(a, b Result) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	return cmp.Compare(a.Index, b.Index)
}

// TopK returns the first min(k, len(ranked)) results.
func TopK(ranked []Result, k int) ([]Result, error) {
	if k <= 0 {
		return nil, invalidArgument("k must be positive")
	}
	if k > len(ranked) {
		k = len(ranked)
	}
	return ranked[:k:k], nil
}
