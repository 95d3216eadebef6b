package debate

import (
	"fmt"
	"strings"
)

// Turn is one side's argument in one round.
type Turn struct {
	Round    int    `json:"round"`
	Argument string `json:"argument"`
}

// Event is a judge event in one round.
type Event struct {
	Round int    `json:"round"`
	Event string `json:"event"`
}

// Summarize writes the closing summary of a debate. cited lists the
// precedent titles relied on; it may be empty.
func Summarize(title string, prosecution, defense []Turn, verdict string, cited []string) string {
	title = orDefault(title, "Untitled Case")
	verdict = orDefault(strings.TrimSpace(verdict), "No decision provided")

	lines := []string{
		fmt.Sprintf("The case '%s' was debated over %d rounds.", title, len(prosecution)),
	}
	if len(prosecution) > 0 {
		lines = append(lines, "The prosecution argued: "+joinArguments(prosecution)+".")
	}
	if len(defense) > 0 {
		lines = append(lines, "The defense argued: "+joinArguments(defense)+".")
	}
	lines = append(lines, fmt.Sprintf("Verdict: %s.", strings.TrimSuffix(verdict, ".")))
	if len(cited) > 0 {
		lines = append(lines, "Precedents cited: "+strings.Join(cited, "; ")+".")
	}
	return strings.Join(lines, " ")
}

func joinArguments(turns []Turn) string {
	args := make([]string, len(turns))
	for i, t := range turns {
		args[i] = strings.TrimSuffix(t.Argument, ".")
	}
	return strings.Join(args, "; ")
}
