package errors

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// FormatForUser returns a user-facing message. Details are appended in debug mode.
func FormatForUser(err error, debug bool) string {
	if err == nil {
		return ""
	}

	le, ok := As(err)
	if !ok {
		return err.Error()
	}

	var sb strings.Builder
	sb.WriteString("Error: ")
	sb.WriteString(le.Message)
	sb.WriteString("\n")

	if le.Suggestion != "" {
		sb.WriteString("\nSuggestion: ")
		sb.WriteString(le.Suggestion)
		sb.WriteString("\n")
	}

	if debug {
		for _, k := range sortedKeys(le.Details) {
			fmt.Fprintf(&sb, "  %s: %s\n", k, le.Details[k])
		}
		if le.Cause != nil {
			fmt.Fprintf(&sb, "  cause: %v\n", le.Cause)
		}
	}

	fmt.Fprintf(&sb, "\n[%s]", le.Code)
	return sb.String()
}

// FormatForCLI formats an error for terminal display.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	le, ok := As(err)
	if !ok {
		le = Wrap(ErrCodeInternal, err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Error: %s\n", le.Message)
	if le.Suggestion != "" {
		fmt.Fprintf(&sb, "  Hint: %s\n", le.Suggestion)
	}
	fmt.Fprintf(&sb, "  Code: %s\n", le.Code)
	return sb.String()
}

// LogAttrs returns slog attributes describing err.
func LogAttrs(err error) []slog.Attr {
	if err == nil {
		return nil
	}

	le, ok := As(err)
	if !ok {
		return []slog.Attr{slog.String("error", err.Error())}
	}

	attrs := []slog.Attr{
		slog.String("error_code", le.Code),
		slog.String("error", le.Message),
		slog.String("category", string(le.Category)),
		slog.String("severity", string(le.Severity)),
		slog.Bool("retryable", le.Retryable),
	}
	if le.Cause != nil {
		attrs = append(attrs, slog.String("cause", le.Cause.Error()))
	}
	for _, k := range sortedKeys(le.Details) {
		attrs = append(attrs, slog.String("detail_"+k, le.Details[k]))
	}
	return attrs
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
