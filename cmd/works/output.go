package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/matsen/works/internal/bulk"
	"github.com/matsen/works/internal/grouping"
	"github.com/matsen/works/internal/orcid"
	"github.com/matsen/works/internal/work"
)

// Constants for output formatting.
const (
	ListTitleMaxLen   = 60 // Used in list and group output
	DetailTitleMaxLen = 70 // Used in get command detail view
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// exitCodeFor maps an error to the exit code a script can act on.
func exitCodeFor(err error) int {
	var iv *grouping.InvariantViolation
	var apiErr *orcid.APIError
	switch {
	case errors.As(err, &iv):
		return ExitInvariant
	case errors.Is(err, work.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, bulk.ErrTooManyRequested), errors.Is(err, orcid.ErrInvalidID):
		return ExitDataError
	case errors.Is(err, orcid.ErrAuthError):
		return ExitORCIDAuthError
	case errors.Is(err, orcid.ErrRateLimited), errors.Is(err, orcid.ErrNetworkError),
		errors.Is(err, orcid.ErrInvalidResponse), errors.As(err, &apiErr):
		return ExitORCIDAPIError
	default:
		return ExitError
	}
}

// ErrorResponse is the JSON shape of every error.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

// truncateString shortens s to maxLen runes, ending with "...".
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// formatDate renders a publication date at the precision it is known.
func formatDate(d work.PublicationDate) string {
	switch {
	case d.Year == 0:
		return "n.d."
	case d.Month == 0:
		return fmt.Sprintf("%d", d.Year)
	case d.Day == 0:
		return fmt.Sprintf("%d-%02d", d.Year, d.Month)
	default:
		return fmt.Sprintf("%d-%02d-%02d", d.Year, d.Month, d.Day)
	}
}

// formatIdentifiers renders identifiers as "type:value" joined by commas.
func formatIdentifiers(ids []work.ExternalIdentifier) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		typ := string(id.Type)
		if typ == "" {
			typ = id.RawType
		}
		p := typ + ":" + id.Value
		if id.Relationship != "" && id.Relationship != work.RelSelf {
			p += " (" + string(id.Relationship) + ")"
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, ", ")
}

// printWorkLine prints one work as a single list line.
func printWorkLine(w work.Work) {
	year := "    "
	if w.Published.Year > 0 {
		year = fmt.Sprintf("%d", w.Published.Year)
	}
	fmt.Printf("%-10d %s  %s\n", w.WorkID, year, truncateString(w.Title, ListTitleMaxLen))
}
