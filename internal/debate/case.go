package debate

import (
	"slices"

	"github.com/Aman-CERP/lexdebate/internal/search"
)

// Case is a generated case for a debate.
type Case struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Text         string   `json:"text"`
	Year         string   `json:"year"`
	Jurisdiction string   `json:"jurisdiction"`
	CaseType     string   `json:"case_type,omitempty"`
	Tags         []string `json:"tags"`
}

// GenerateCase picks a random document from docs and fills missing fields
// with defaults. An empty corpus yields a placeholder case.
func (g *Generator) GenerateCase(docs []search.Document) Case {
	if len(docs) == 0 {
		return Case{
			ID:           "case-0",
			Title:        "No Cases Available",
			Text:         "No cases available in the corpus.",
			Year:         "N/A",
			Jurisdiction: "Unknown",
			Tags:         []string{"empty"},
		}
	}

	d := docs[g.Intn(len(docs))]
	c := Case{
		ID:           d.ID,
		Title:        orDefault(d.Title, "Untitled Case"),
		Text:         orDefault(d.Text, "No description available."),
		Year:         orDefault(d.Year, "N/A"),
		Jurisdiction: orDefault(d.Jurisdiction, "Unknown"),
		CaseType:     d.CaseType,
		Tags:         slices.Clone(d.Tags),
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return c
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
