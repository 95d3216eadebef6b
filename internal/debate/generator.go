package debate

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/Aman-CERP/lexdebate/internal/search"
)

// Generator produces arguments and judge events from the template tables.
// It is safe for concurrent use; the random source is guarded.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator returns a Generator seeded with seed. A zero seed uses the clock.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rng: rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1))}
}

// pick returns a random element of items.
func (g *Generator) pick(items []string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return items[g.rng.IntN(len(items))]
}

// Intn returns a random int in [0, n).
func (g *Generator) Intn(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.IntN(n)
}

// Prosecution argues from the retrieved precedents. With no precedents it
// cites NoPrecedent as its context.
func (g *Generator) Prosecution(caseText string, precedents []search.Result) string {
	arg := fill(g.pick(ProsecutionTemplates), caseText)
	return arg + " Context: " + PrecedentContext(precedents)
}

// Defense argues from the templates alone.
func (g *Generator) Defense(caseText string) string {
	return fill(g.pick(DefenseTemplates), caseText)
}

// JudgeEvent returns "Round N: <event>".
func (g *Generator) JudgeEvent(round int) string {
	return fmt.Sprintf("Round %d: %s", round, g.pick(JudgeEvents))
}

// Scenario returns a random case prompt.
func (g *Generator) Scenario() string {
	return g.pick(Scenarios)
}

// PrecedentContext summarizes the top precedent as
// "<title> (<year>, <jurisdiction>): <principle>; <principle>".
func PrecedentContext(precedents []search.Result) string {
	if len(precedents) == 0 {
		return NoPrecedent
	}
	d := precedents[0].Document

	var b strings.Builder
	b.WriteString(d.Title)
	var meta []string
	if d.Year != "" {
		meta = append(meta, d.Year)
	}
	if d.Jurisdiction != "" {
		meta = append(meta, d.Jurisdiction)
	}
	if len(meta) > 0 {
		b.WriteString(" (" + strings.Join(meta, ", ") + ")")
	}
	if len(d.Principles) > 0 {
		b.WriteString(": " + strings.Join(d.Principles, "; "))
	}
	return b.String()
}

func fill(template, caseText string) string {
	return strings.TrimSpace(strings.ReplaceAll(template, CaseSlot, caseText))
}
