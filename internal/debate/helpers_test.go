package debate

import (
	"context"
	"sync"

	"github.com/Aman-CERP/lexdebate/internal/search"
)

// stubSearcher returns canned results and records queries.
type stubSearcher struct {
	mu      sync.Mutex
	results []search.Result
	hints   search.Hints
	err     error
	queries []string
	passed  []search.Hints
}

func (s *stubSearcher) Search(_ context.Context, query string, k int, hints search.Hints) (*search.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	s.passed = append(s.passed, hints)
	if s.err != nil {
		return nil, s.err
	}
	res := s.results
	if len(res) > k {
		res = res[:k]
	}
	return &search.Response{Results: res, Hints: s.hints}, nil
}

func parrotPrecedent() search.Result {
	return search.Result{
		Score: 1.2,
		Document: search.Document{
			ID:           "c001",
			Title:        "Polly v. Hargreaves",
			Year:         "1998",
			Jurisdiction: "UK",
			CaseType:     "defamation",
			Principles:   []string{"publication requires a third party", "keepers answer for trained animals"},
		},
	}
}
