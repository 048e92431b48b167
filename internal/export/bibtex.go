// Package export renders works in citation formats.
package export

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/matsen/works/internal/author"
	"github.com/matsen/works/internal/grouping"
	"github.com/matsen/works/internal/work"
)

// ORCID work types with a dedicated BibTeX entry type. Anything else is
// an article unless its venue says otherwise.
var entryTypes = map[string]string{
	"journal-article":     "article",
	"conference-paper":    "inproceedings",
	"book":                "book",
	"edited-book":         "book",
	"book-chapter":        "incollection",
	"dissertation":        "phdthesis",
	"dissertation-thesis": "phdthesis",
	"report":              "techreport",
	"preprint":            "misc",
	"working-paper":       "misc",
	"data-set":            "misc",
	"software":            "misc",
}

// CitationKey returns a stable key: first author surname, year, and work id.
func CitationKey(w work.Work) string {
	name := "work"
	if len(w.Authors) > 0 {
		if s := surname(w.Authors[0].Name); s != "" {
			name = s
		}
	}
	year := ""
	if w.Published.Year > 0 {
		year = fmt.Sprintf("%d", w.Published.Year)
	}
	return fmt.Sprintf("%s%s-%d", name, year, w.WorkID)
}

// ToBibTeX converts a work to a BibTeX entry.
func ToBibTeX(w work.Work) string {
	entryType := determineEntryType(w)
	var b strings.Builder

	b.WriteString(fmt.Sprintf("@%s{%s,\n", entryType, CitationKey(w)))

	if len(w.Authors) > 0 {
		b.WriteString(fmt.Sprintf("  author = {%s},\n", formatAuthors(w.Authors)))
	}

	b.WriteString(fmt.Sprintf("  title = {%s},\n", escapeLatex(w.Title)))

	if w.Venue != "" {
		fieldName := "journal"
		switch entryType {
		case "inproceedings", "incollection":
			fieldName = "booktitle"
		case "book":
			fieldName = "publisher"
		case "phdthesis":
			fieldName = "school"
		case "techreport":
			fieldName = "institution"
		case "misc":
			fieldName = "howpublished"
		}
		b.WriteString(fmt.Sprintf("  %s = {%s},\n", fieldName, escapeLatex(w.Venue)))
	}

	if w.Published.Year > 0 {
		b.WriteString(fmt.Sprintf("  year = {%d},\n", w.Published.Year))
	}
	if w.Published.Month > 0 {
		b.WriteString(fmt.Sprintf("  month = {%d},\n", w.Published.Month))
	}

	if doi := firstSelf(w, work.IDDOI); doi != "" {
		b.WriteString(fmt.Sprintf("  doi = {%s},\n", doi))
	}
	if eprint := firstSelf(w, work.IDArXiv); eprint != "" {
		b.WriteString(fmt.Sprintf("  eprint = {%s},\n  archiveprefix = {arXiv},\n", eprint))
	}
	if isbn := firstSelf(w, work.IDISBN); isbn != "" && (entryType == "book" || entryType == "incollection") {
		b.WriteString(fmt.Sprintf("  isbn = {%s},\n", isbn))
	}
	if w.URL != "" {
		b.WriteString(fmt.Sprintf("  url = {%s},\n", w.URL))
	}

	b.WriteString("}\n")

	return b.String()
}

// ToBibTeXList converts multiple works to BibTeX format.
func ToBibTeXList(works []work.Work) string {
	var entries []string
	for _, w := range works {
		entries = append(entries, ToBibTeX(w))
	}
	return strings.Join(entries, "\n")
}

// Representatives picks one work per group: the group's most recently
// modified member. Groups whose representative is missing from works
// are skipped. The result follows group order.
func Representatives(res *grouping.Result, works []work.Work) []work.Work {
	type key struct {
		owner string
		id    int64
	}
	byKey := make(map[key]work.Work, len(works))
	for _, w := range works {
		byKey[key{w.OwnerID, w.WorkID}] = w
	}

	out := make([]work.Work, 0, len(res.Groups))
	for g := range res.Groups {
		rep := res.Members(g)[0]
		if w, ok := byKey[key{rep.OwnerID, rep.WorkID}]; ok {
			out = append(out, w)
		}
	}
	return out
}

// determineEntryType returns the BibTeX entry type for a work.
func determineEntryType(w work.Work) string {
	if t, ok := entryTypes[strings.ToLower(w.Type)]; ok {
		return t
	}

	venue := strings.ToLower(w.Venue)
	if strings.Contains(venue, "proceedings") ||
		strings.Contains(venue, "conference") ||
		strings.Contains(venue, "workshop") ||
		strings.Contains(venue, "symposium") {
		return "inproceedings"
	}

	return "article"
}

// formatAuthors joins credit names in BibTeX style: "A and B and C".
func formatAuthors(authors []work.Author) string {
	var formatted []string
	for _, a := range authors {
		if a.Name != "" {
			formatted = append(formatted, escapeLatex(a.Name))
		}
	}
	return strings.Join(formatted, " and ")
}

// surname returns the letters of the last name in a credit name.
func surname(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return r
		}
		return -1
	}, author.ParseQuery(name).Last)
}

func firstSelf(w work.Work, t work.IDType) string {
	for _, id := range w.Identifiers {
		if id.Type == t && id.IsSelf() {
			return id.Value
		}
	}
	return ""
}

// escapeLatex escapes special LaTeX characters.
func escapeLatex(s string) string {
	// Order matters: & must be first (before other escapes that might produce &)
	replacer := strings.NewReplacer(
		"&", `\&`,
		"%", `\%`,
		"$", `\$`,
		"#", `\#`,
		"_", `\_`,
		"{", `\{`,
		"}", `\}`,
		"~", `\textasciitilde{}`,
		"^", `\textasciicircum{}`,
	)
	return replacer.Replace(s)
}
