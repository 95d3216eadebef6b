package debate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/lexdebate/internal/search"
)

// DefaultRounds is how many rounds a new debate opens with.
const DefaultRounds = 3

// Searcher retrieves precedents. *search.Holder satisfies it.
type Searcher interface {
	Search(ctx context.Context, query string, k int, hints search.Hints) (*search.Response, error)
}

// Debate is the transcript of a debate so far.
type Debate struct {
	Case  string       `json:"case"`
	Hints search.Hints `json:"hints"`
	// Explicit holds the caller's hints, reapplied on every re-search.
	Explicit    search.Hints    `json:"explicit_hints,omitempty"`
	Precedents  []search.Result `json:"precedents"`
	Prosecution []Turn          `json:"prosecution"`
	Defense     []Turn          `json:"defense"`
	JudgeEvents []Event         `json:"judge_events"`
	// Reversed is set while the two lawyers have swapped sides.
	Reversed bool `json:"reversed"`
}

// Rounds returns the number of completed rounds.
func (d *Debate) Rounds() int {
	return len(d.JudgeEvents)
}

// Cited returns the titles of the retrieved precedents.
func (d *Debate) Cited() []string {
	titles := make([]string, 0, len(d.Precedents))
	for _, p := range d.Precedents {
		titles = append(titles, p.Document.Title)
	}
	return titles
}

// Engine runs debates against a retriever.
type Engine struct {
	searcher Searcher
	gen      *Generator
	dispatch *Dispatcher
	rounds   int
	k        int
}

// NewEngine wires an Engine. rounds and k fall back to DefaultRounds and 3.
func NewEngine(searcher Searcher, gen *Generator, dispatch *Dispatcher, rounds, k int) (*Engine, error) {
	if searcher == nil || gen == nil || dispatch == nil {
		return nil, fmt.Errorf("%w: debate engine needs a searcher, generator and dispatcher", search.ErrNilDependency)
	}
	if rounds <= 0 {
		rounds = DefaultRounds
	}
	if k <= 0 {
		k = 3
	}
	return &Engine{searcher: searcher, gen: gen, dispatch: dispatch, rounds: rounds, k: k}, nil
}

// Generator returns the engine's generator.
func (e *Engine) Generator() *Generator {
	return e.gen
}

// Open retrieves precedents for caseText and plays the opening rounds.
// Retrieval errors are returned; argument generation never fails.
func (e *Engine) Open(ctx context.Context, caseText string, hints search.Hints) (*Debate, error) {
	caseText = strings.TrimSpace(caseText)
	d := &Debate{Case: caseText, Explicit: hints}
	if err := e.retrieve(ctx, d); err != nil {
		return nil, err
	}
	for range e.rounds {
		e.Round(ctx, d)
	}

	slog.Info("debate_opened",
		slog.Int("rounds", d.Rounds()),
		slog.Int("precedents", len(d.Precedents)))
	return d, nil
}

// AddEvidence appends evidence to the case, retrieves again and replaces
// the arguments with a fresh set of opening rounds.
func (e *Engine) AddEvidence(ctx context.Context, d *Debate, evidence string) error {
	evidence = strings.TrimSpace(evidence)
	if evidence == "" {
		return nil
	}
	next := &Debate{
		Case:     d.Case + " New evidence: " + evidence,
		Explicit: d.Explicit,
		Reversed: d.Reversed,
	}
	if err := e.retrieve(ctx, next); err != nil {
		return err
	}
	for range e.rounds {
		e.Round(ctx, next)
	}
	*d = *next
	return nil
}

// Round plays one round: both lawyers argue concurrently, then the judge
// introduces an event. Templates are drawn before dispatch so a seeded
// generator yields the same debate regardless of goroutine scheduling.
func (e *Engine) Round(ctx context.Context, d *Debate) {
	round := d.Rounds() + 1
	prosArg := e.gen.Prosecution(d.Case, d.Precedents)
	defArg := e.gen.Defense(d.Case)
	judgeArg := e.gen.JudgeEvent(round)

	var prosecution, defense string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		prosecution = e.dispatch.Call(gctx, "Prosecution argument unavailable", func(context.Context) (string, error) {
			return prosArg, nil
		})
		return nil
	})
	g.Go(func() error {
		defense = e.dispatch.Call(gctx, "Defense argument unavailable", func(context.Context) (string, error) {
			return defArg, nil
		})
		return nil
	})
	_ = g.Wait()

	if d.Reversed {
		prosecution, defense = defense, prosecution
	}
	d.Prosecution = append(d.Prosecution, Turn{Round: round, Argument: prosecution})
	d.Defense = append(d.Defense, Turn{Round: round, Argument: defense})

	event := e.dispatch.Call(ctx, "Judge event unavailable", func(context.Context) (string, error) {
		return judgeArg, nil
	})
	d.JudgeEvents = append(d.JudgeEvents, Event{Round: round, Event: event})
}

// ReverseRoles swaps the two lawyers, including every argument so far.
func (e *Engine) ReverseRoles(d *Debate) {
	d.Prosecution, d.Defense = d.Defense, d.Prosecution
	d.Reversed = !d.Reversed
}

// Summarize closes the debate with verdict.
func (e *Engine) Summarize(ctx context.Context, d *Debate, title, verdict string) string {
	if title == "" {
		title = d.Case
	}
	return e.dispatch.Call(ctx, "Summary unavailable", func(context.Context) (string, error) {
		return Summarize(title, d.Prosecution, d.Defense, verdict, d.Cited()), nil
	})
}

func (e *Engine) retrieve(ctx context.Context, d *Debate) error {
	resp, err := e.searcher.Search(ctx, d.Case, e.k, d.Explicit)
	if err != nil {
		return err
	}
	d.Precedents = resp.Results
	d.Hints = resp.Hints
	return nil
}
