package search

import (
	"context"
	"errors"
	"sync/atomic"
)

// --- Test Helpers ---

// bagOfWords embeds text as term counts over a fixed vocabulary.
func bagOfWords(vocab ...string) EmbedFunc {
	index := make(map[string]int, len(vocab))
	for i, w := range vocab {
		index[w] = i
	}
	return func(_ context.Context, text string) ([]float32, error) {
		v := make([]float32, len(vocab))
		for _, tok := range Tokenize(text) {
			if i, ok := index[tok]; ok {
				v[i]++
			}
		}
		return v, nil
	}
}

// failingEmbed fails every call after the first n succeed.
func failingEmbed(inner EmbedFunc, n int64) EmbedFunc {
	var calls atomic.Int64
	return func(ctx context.Context, text string) ([]float32, error) {
		if calls.Add(1) > n {
			return nil, errors.New("model offline")
		}
		return inner(ctx, text)
	}
}

func scenarioCorpus() []Document {
	return []Document{
		{ID: "a", Title: "A", Text: "parrot defamation claim", Jurisdiction: "UK", CaseType: "defamation"},
		{ID: "b", Title: "B", Text: "contract breach dispute", Jurisdiction: "US", CaseType: "contract"},
	}
}

var scenarioVocab = []string{"parrot", "defamation", "claim", "contract", "breach", "dispute", "ghost", "rent"}

type recordingRecorder struct {
	events []SearchEvent
}

func (r *recordingRecorder) RecordSearch(_ context.Context, ev SearchEvent) {
	r.events = append(r.events, ev)
}
