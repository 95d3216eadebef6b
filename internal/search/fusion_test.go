package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    []float64
		expected []float64
	}{
		{"spread", []float64{1, 2, 3}, []float64{0, 0.5, 1}},
		{"negative values", []float64{-1, 0, 1}, []float64{0, 0.5, 1}},
		{"all equal", []float64{0.7, 0.7, 0.7}, []float64{0, 0, 0}},
		{"single value", []float64{4.2}, []float64{0}},
		{"empty", []float64{}, []float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			require.Len(t, got, len(tt.expected))
			for i := range got {
				assert.InDelta(t, tt.expected[i], got[i], 1e-6)
				assert.GreaterOrEqual(t, got[i], 0.0)
				assert.LessOrEqual(t, got[i], 1.0)
			}
		})
	}
}

func TestMetadataBonus(t *testing.T) {
	cfg := DefaultConfig()
	doc := Document{CaseType: "defamation", Jurisdiction: "UK"}

	tests := []struct {
		name     string
		hints    Hints
		expected float64
	}{
		{"both match", Hints{HintCaseType: "defamation", HintJurisdiction: "UK"}, 1.5},
		{"case type only", Hints{HintCaseType: "defamation"}, 1.0},
		{"jurisdiction only", Hints{HintJurisdiction: "UK"}, 0.5},
		{"mismatch", Hints{HintCaseType: "tort", HintJurisdiction: "US"}, 0},
		{"case sensitive", Hints{HintJurisdiction: "uk"}, 0},
		{"no hints", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, MetadataBonus(doc, tt.hints, cfg), 1e-12)
		})
	}
}

func TestMetadataBonus_EmptyDocumentFieldsNeverMatch(t *testing.T) {
	assert.Zero(t, MetadataBonus(Document{}, Hints{HintCaseType: ""}, DefaultConfig()))
}

func TestFuse_WeightsAndOrder(t *testing.T) {
	// Given: doc 1 wins lexically, doc 0 wins semantically and on metadata
	docs := []Document{
		{ID: "0", CaseType: "tort"},
		{ID: "1"},
		{ID: "2"},
	}
	lex := []float64{0, 10, 5}
	sem := []float64{0.9, 0.1, 0.1}

	// When: fusing with default weights
	ranked := Fuse(lex, sem, docs, Hints{HintCaseType: "tort"}, DefaultConfig())

	// Then: 0.4*1 + 0.3*1 = 0.7 beats 0.3*1 = 0.3 beats 0.3*0.5 = 0.15
	require.Len(t, ranked, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{ranked[0].Index, ranked[1].Index, ranked[2].Index})
	assert.InDelta(t, 0.7, ranked[0].Score, 1e-6)
	assert.InDelta(t, 0.3, ranked[1].Score, 1e-6)
	assert.InDelta(t, 0.15, ranked[2].Score, 1e-6)
	assert.Equal(t, "0", ranked[0].Document.ID)
}

func TestFuse_TieBreakByIndex(t *testing.T) {
	// Given: every document scores identically
	docs := make([]Document, 5)
	zeros := make([]float64, 5)

	ranked := Fuse(zeros, zeros, docs, nil, DefaultConfig())

	// Then: original order is preserved
	for i, r := range ranked {
		assert.Equal(t, i, r.Index)
		assert.Zero(t, r.Score)
	}
}

func TestFuse_TieBreakAmongEqualScores(t *testing.T) {
	docs := make([]Document, 4)
	lex := []float64{1, 3, 1, 3}
	zeros := make([]float64, 4)

	ranked := Fuse(lex, zeros, docs, nil, DefaultConfig())

	got := []int{ranked[0].Index, ranked[1].Index, ranked[2].Index, ranked[3].Index}
	assert.Equal(t, []int{1, 3, 0, 2}, got)
}

func TestTopK(t *testing.T) {
	ranked := []Result{{Index: 0}, {Index: 1}, {Index: 2}}

	for k := 1; k <= 5; k++ {
		top, err := TopK(ranked, k)
		require.NoError(t, err)
		assert.Len(t, top, min(k, len(ranked)))
	}

	_, err := TopK(ranked, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = TopK(ranked, -3)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestWeights_Validate(t *testing.T) {
	assert.NoError(t, DefaultWeights().Validate())
	assert.NoError(t, Weights{Lexical: 2}.Validate())
	assert.ErrorIs(t, Weights{}.Validate(), ErrInvalidArgument)
	assert.ErrorIs(t, Weights{Lexical: -0.1, Semantic: 1}.Validate(), ErrInvalidArgument)
}

func TestConfig_MaxScore(t *testing.T) {
	assert.InDelta(t, 0.3+0.4+1.5*0.3, DefaultConfig().MaxScore(), 1e-12)
}
