package cmd

import (
	"fmt"
	"strings"

	"setbridge/internal/settings"
	"setbridge/internal/snapshot"
)

// errorStrings turns errors into their messages for JSON output.
func errorStrings(errs []error) []string {
	out := make([]string, 0, len(errs))
	for _, err := range errs {
		out = append(out, err.Error())
	}
	return out
}

// displayValue renders a captured value for text output.
func displayValue(e snapshot.Entry) string {
	if e.Provenance == settings.NotFound {
		return "(not found)"
	}
	s, err := settings.Format(e.Kind, e.Value)
	if err != nil {
		return fmt.Sprint(e.Value)
	}
	return strings.ReplaceAll(s, "\n", `\n`)
}

// printEntries writes one line per entry: "group.setting = value".
func (a *App) printEntries(entries []snapshot.Entry) {
	for _, e := range entries {
		line := fmt.Sprintf("%s.%s = %s", e.Group, e.Setting, displayValue(e))
		if e.Provenance == settings.Default {
			line += " " + a.WarnColor("(default)")
		}
		fmt.Fprintln(a.Out, line)
	}
}

// printErrors writes each group error to the error stream.
func (a *App) printErrors(errs []error) {
	for _, err := range errs {
		fmt.Fprintf(a.Err, "%s %v\n", a.ErrorColor("✗"), err)
	}
}

// failed wraps a count of failed groups into a command error.
func failed(op string, n int) error {
	if n == 1 {
		return fmt.Errorf("%s failed for 1 group", op)
	}
	return fmt.Errorf("%s failed for %d groups", op, n)
}
