package mcp

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Aman-CERP/lexdebate/internal/search"
)

// FormatPrecedents renders a search response as markdown.
func FormatPrecedents(query string, resp *search.Response) string {
	if resp == nil || len(resp.Results) == 0 {
		return fmt.Sprintf("No precedents found for \"%s\"", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Precedents for \"%s\"\n\n", query)
	if hints := formatHints(resp.Hints); hints != "" {
		fmt.Fprintf(&sb, "Detected: %s\n\n", hints)
	}
	fmt.Fprintf(&sb, "Found %d precedent", len(resp.Results))
	if len(resp.Results) != 1 {
		sb.WriteString("s")
	}
	sb.WriteString("\n\n")

	terms := search.Tokenize(query)
	for i, r := range resp.Results {
		formatPrecedent(&sb, i+1, r, terms, resp.Hints)
	}
	return sb.String()
}

func formatPrecedent(sb *strings.Builder, num int, r search.Result, terms []string, hints search.Hints) {
	d := r.Document
	fmt.Fprintf(sb, "### %d. %s (score: %.2f)\n", num, orUntitled(d.Title), r.Score)

	var meta []string
	if d.Year != "" {
		meta = append(meta, d.Year)
	}
	if d.Jurisdiction != "" {
		meta = append(meta, d.Jurisdiction)
	}
	if d.CaseType != "" {
		meta = append(meta, d.CaseType)
	}
	if len(meta) > 0 {
		fmt.Fprintf(sb, "**%s**\n\n", strings.Join(meta, " · "))
	} else {
		sb.WriteString("\n")
	}

	if d.Text != "" {
		sb.WriteString(d.Text)
		sb.WriteString("\n\n")
	}
	for _, p := range d.Principles {
		fmt.Fprintf(sb, "- %s\n", p)
	}
	if len(d.Principles) > 0 {
		sb.WriteString("\n")
	}
	fmt.Fprintf(sb, "_%s_\n\n", matchReason(r, terms, hints))
}

func formatHints(h search.Hints) string {
	var parts []string
	if v := h[search.HintCaseType]; v != "" {
		parts = append(parts, "case type `"+v+"`")
	}
	if v := h[search.HintJurisdiction]; v != "" {
		parts = append(parts, "jurisdiction `"+v+"`")
	}
	return strings.Join(parts, ", ")
}

func orUntitled(title string) string {
	if title == "" {
		return "Untitled Case"
	}
	return title
}

// clampK ensures k is within bounds. Zero means unset.
func clampK(k, defaultVal, lo, hi int) int {
	if k == 0 {
		return defaultVal
	}
	return min(max(k, lo), hi)
}

// ToPrecedentOutput converts a result to the tool output shape.
func ToPrecedentOutput(r search.Result, terms []string, hints search.Hints) PrecedentOutput {
	d := r.Document
	return PrecedentOutput{
		ID:           d.ID,
		Title:        d.Title,
		Text:         d.Text,
		Year:         d.Year,
		Jurisdiction: d.Jurisdiction,
		CaseType:     d.CaseType,
		Principles:   d.Principles,
		Outcome:      d.Outcome,
		Score:        r.Score,
		Index:        r.Index,
		MatchedTerms: matchedTerms(d, terms),
		MatchReason:  matchReason(r, terms, hints),
	}
}

// matchedTerms returns the query terms that occur in the document.
func matchedTerms(d search.Document, terms []string) []string {
	if len(terms) == 0 {
		return nil
	}
	docTerms := search.Tokenize(d.Title + " " + d.Text + " " + strings.Join(d.Principles, " "))
	var out []string
	for _, t := range terms {
		if slices.Contains(docTerms, t) && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}

// matchReason explains in a line why a precedent ranked where it did.
func matchReason(r search.Result, terms []string, hints search.Hints) string {
	var parts []string
	d := r.Document
	if v := hints[search.HintCaseType]; v != "" && strings.EqualFold(v, d.CaseType) {
		parts = append(parts, "same case type ("+d.CaseType+")")
	}
	if v := hints[search.HintJurisdiction]; v != "" && strings.EqualFold(v, d.Jurisdiction) {
		parts = append(parts, "same jurisdiction ("+d.Jurisdiction+")")
	}
	if m := matchedTerms(d, terms); len(m) > 0 {
		if len(m) > 5 {
			m = m[:5]
		}
		parts = append(parts, "matched: "+strings.Join(m, ", "))
	}
	if len(parts) == 0 {
		return "semantic similarity"
	}
	return strings.Join(parts, "; ")
}
