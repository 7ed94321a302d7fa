package printer

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"pickem/ingestion/internal/batch"
	"pickem/ingestion/internal/ingest"
	"pickem/ingestion/internal/picktypes"
	"pickem/ingestion/internal/resolve"

	"github.com/fatih/color"
)

func init() {
	// Force color output even when not connected to TTY
	// Users can disable with NO_COLOR environment variable
	if os.Getenv("NO_COLOR") == "" {
		color.NoColor = false
	}
}

var (
	// Out and ErrOut are where messages go; tests swap them.
	Out    io.Writer = os.Stdout
	ErrOut io.Writer = os.Stderr

	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

// fixes tells the operator what to change for each rejection category.
var fixes = map[string]string{
	resolve.CategoryTeamNotFound:    "Add the missing names to teams.other_names",
	resolve.CategoryTeamAmbiguous:   "Remove names shared by several teams from teams.other_names",
	resolve.CategoryPickerNotFound:  "Add the missing names to pickers.aliases",
	resolve.CategoryPickerAmbiguous: "Remove names shared by several pickers from pickers.aliases",
	picktypes.CategoryInconsistent:  "Fix the pick-types file so the weighted counts cover every remaining team",
	batch.CategoryOther:             "Check the log for the rejected entries",
}

// Success prints a success message in green with a checkmark prefix
func Success(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "✓") {
		green.Fprintf(Out, "✓ %s", msg)
	} else {
		green.Fprint(Out, msg)
	}
}

// Info prints an informational message in the default color
func Info(format string, a ...any) {
	fmt.Fprintf(Out, format, a...)
}

// Warning prints a warning message in yellow with a warning emoji prefix
func Warning(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "⚠️") {
		yellow.Fprintf(ErrOut, "⚠️  %s", msg)
	} else {
		yellow.Fprint(ErrOut, msg)
	}
}

// Step prints a step message with emphasis (used in multi-step operations)
func Step(format string, a ...any) {
	cyan.Fprintf(Out, "→ %s", fmt.Sprintf(format, a...))
}

// Error creates a formatted error message with title, explanation, and suggestions
// Prints the formatted error to stderr with colors and returns a simple error for Cobra
func Error(title string, explanation string, suggestions []string) error {
	red.Fprintf(ErrOut, "%s\n\n", title)
	fmt.Fprintf(ErrOut, "%s\n", explanation)
	printSuggestions(suggestions)

	// Return simple error for Cobra (won't be printed due to SilenceErrors)
	return fmt.Errorf("%s", title)
}

// Committed prints the outcome of a committed run
func Committed(s *ingest.Summary) {
	Success("%s run %s committed: %d record(s)\n", s.Feed, s.RunID, s.Records)
}

// Aborted prints the per-category counts of an aborted run and what to fix.
// The returned error wraps the original so callers can still match it.
func Aborted(err *batch.RunAbortedError) error {
	title := fmt.Sprintf("%s run aborted: nothing was written", err.Feed)
	red.Fprintf(ErrOut, "%s\n\n", title)

	categories := make([]string, 0, len(err.Counts))
	for c := range err.Counts {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var suggestions []string
	for _, c := range categories {
		fmt.Fprintf(ErrOut, "  %-26s %d\n", c, err.Counts[c])
		if fix, ok := fixes[c]; ok {
			suggestions = append(suggestions, fix)
		}
	}
	fmt.Fprintf(ErrOut, "  %-26s %d\n", "total", err.Counts.Total())

	printSuggestions(suggestions)
	if len(suggestions) > 0 {
		fmt.Fprintf(ErrOut, "\nThen run the command again.\n")
	}

	return fmt.Errorf("%s: %w", title, err)
}

func printSuggestions(suggestions []string) {
	if len(suggestions) == 0 {
		return
	}
	fmt.Fprintf(ErrOut, "\n")
	if len(suggestions) == 1 {
		fmt.Fprintf(ErrOut, "%s\n", suggestions[0])
		return
	}
	fmt.Fprintf(ErrOut, "Either:\n")
	for i, suggestion := range suggestions {
		fmt.Fprintf(ErrOut, "  %d. %s\n", i+1, suggestion)
	}
}
