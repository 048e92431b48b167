// Package author matches contributor queries against the credit names and
// ORCID iDs recorded on works.
package author

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/matsen/works/internal/work"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Query is a parsed contributor filter: either a name or an ORCID iD.
type Query struct {
	First string // Given names; empty for surname-only queries
	Last  string // Surname
	ORCID string // Bare iD when the query names a researcher by ORCID
}

var orcidID = regexp.MustCompile(`^\d{4}-\d{4}-\d{4}-\d{3}[\dX]$`)

var orcidPrefixes = []string{"https://orcid.org/", "http://orcid.org/", "orcid.org/"}

// ParseQuery parses a filter or a credit name.
//
// Supported formats:
//   - "0000-0002-1825-0097" or "https://orcid.org/0000-0002-1825-0097" → ORCID iD
//   - "Yu"                  → surname only
//   - "Timothy C. Yu"       → given "Timothy C.", surname "Yu"
//   - "Yu, Timothy"         → given "Timothy", surname "Yu"
func ParseQuery(input string) Query {
	input = strings.TrimSpace(input)
	if id, ok := parseORCID(input); ok {
		return Query{ORCID: id}
	}

	if idx := strings.Index(input, ","); idx > 0 {
		return Query{
			First: strings.TrimSpace(input[idx+1:]),
			Last:  strings.TrimSpace(input[:idx]),
		}
	}

	parts := strings.Fields(input)
	switch len(parts) {
	case 0:
		return Query{}
	case 1:
		return Query{Last: parts[0]}
	}
	return Query{
		First: strings.Join(parts[:len(parts)-1], " "),
		Last:  parts[len(parts)-1],
	}
}

func parseORCID(s string) (string, bool) {
	lower := strings.ToLower(s)
	for _, p := range orcidPrefixes {
		if strings.HasPrefix(lower, p) {
			s = s[len(p):]
			break
		}
	}
	s = strings.ToUpper(s)
	return s, orcidID.MatchString(s)
}

// Matches reports whether the query names contributor a.
//
// An ORCID query matches only the contributor's recorded iD. A name query
// needs the surname to match exactly and each given name to be a prefix of
// the credit name's given name in the same position, ignoring case and
// accents. Initials in the credit name ("T. C. Yu") match any given name
// with that initial.
func (q Query) Matches(a work.Author) bool {
	if q.ORCID != "" {
		id, ok := parseORCID(a.ORCID)
		return ok && id == q.ORCID
	}
	if q.Last == "" {
		return false
	}

	credit := ParseQuery(a.Name)
	if credit.ORCID != "" || fold(q.Last) != fold(credit.Last) {
		return false
	}
	return givenNamesMatch(q.First, credit.First)
}

func givenNamesMatch(query, credit string) bool {
	want := nameParts(query)
	have := nameParts(credit)
	if len(want) > len(have) {
		return false
	}
	for i, w := range want {
		h := have[i]
		if isInitial(h) {
			if !strings.HasPrefix(w, strings.TrimSuffix(h, ".")) {
				return false
			}
			continue
		}
		if !strings.HasPrefix(h, strings.TrimSuffix(w, ".")) {
			return false
		}
	}
	return true
}

// nameParts splits given names on spaces and hyphens, folded.
func nameParts(s string) []string {
	return strings.FieldsFunc(fold(s), func(r rune) bool {
		return r == ' ' || r == '-'
	})
}

func isInitial(part string) bool {
	return len([]rune(strings.TrimSuffix(part, "."))) == 1
}

// fold lowercases and strips combining marks so "Müller" matches "Muller".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return cases.Fold().String(out)
}

// MatchesAny reports whether the query names any of the contributors.
func (q Query) MatchesAny(authors []work.Author) bool {
	for _, a := range authors {
		if q.Matches(a) {
			return true
		}
	}
	return false
}

// AllMatch reports whether every query names at least one contributor.
func AllMatch(queries []Query, authors []work.Author) bool {
	for _, q := range queries {
		if !q.MatchesAny(authors) {
			return false
		}
	}
	return true
}

// Filter returns the works whose contributors satisfy every query, in
// input order. With no queries every work passes.
func Filter(works []work.Work, queries []Query) []work.Work {
	out := make([]work.Work, 0, len(works))
	for _, w := range works {
		if AllMatch(queries, w.Authors) {
			out = append(out, w)
		}
	}
	return out
}
