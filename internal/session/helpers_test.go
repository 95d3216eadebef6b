package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/lexdebate/internal/debate"
	"github.com/Aman-CERP/lexdebate/internal/search"
)

// cannedSearcher always returns the same precedent.
type cannedSearcher struct {
	err     error
	queries []string
}

func (c *cannedSearcher) Search(_ context.Context, query string, _ int, hints search.Hints) (*search.Response, error) {
	c.queries = append(c.queries, query)
	if c.err != nil {
		return nil, c.err
	}
	merged := search.Hints{search.HintCaseType: "defamation"}
	for k, v := range hints {
		merged[k] = v
	}
	return &search.Response{
		Results: []search.Result{{
			Score: 1,
			Document: search.Document{
				ID:           "c001",
				Title:        "Polly v. Hargreaves",
				Year:         "1998",
				Jurisdiction: "UK",
				CaseType:     "defamation",
				Principles:   []string{"publication requires a third party"},
			},
		}},
		Hints: merged,
	}, nil
}

func newTestService(t *testing.T, searcher debate.Searcher) *Service {
	t.Helper()
	engine, err := debate.NewEngine(searcher, debate.NewGenerator(7), debate.NewDispatcher(), 0, 3)
	require.NoError(t, err)
	svc, err := NewService(NewStore(10, 0), engine)
	require.NoError(t, err)
	return svc
}

func sampleDebate() *debate.Debate {
	return &debate.Debate{
		Case:        "A man sues a parrot for defamation.",
		Hints:       search.Hints{search.HintCaseType: "defamation"},
		Prosecution: []debate.Turn{{Round: 1, Argument: "The parrot spoke."}},
		Defense:     []debate.Turn{{Round: 1, Argument: "Parrots repeat."}},
		JudgeEvents: []debate.Event{{Round: 1, Event: "Round 1: silence"}},
	}
}
