// Package pdf extracts work identifiers from PDF files.
package pdf

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/matsen/works/internal/work"
)

// DefaultMaxPages is how many leading pages are searched for identifiers.
// Identifiers are almost always on the first page.
const DefaultMaxPages = 3

// DOI pattern: 10.XXXX/... where XXXX is 4-9 digits
var doiPattern = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

// arXiv stamps new-style ids in the margin as "arXiv:2101.00001v2".
var arxivPattern = regexp.MustCompile(`(?i)arxiv:\s*(\d{4}\.\d{4,5}(?:v\d+)?)`)

// ExtractDOI extracts the first DOI from a PDF file.
// It returns "" with a nil error when the PDF has no DOI.
func ExtractDOI(filePath string) (string, error) {
	text, err := ExtractText(filePath, DefaultMaxPages)
	if err != nil {
		return "", err
	}
	dois := findDOIs(text)
	if len(dois) == 0 {
		return "", nil
	}
	return dois[0], nil
}

// ExtractIdentifiers returns the DOIs and arXiv ids found on the first
// pages of a PDF, in order of appearance, as self identifiers.
func ExtractIdentifiers(filePath string, maxPages int) ([]work.ExternalIdentifier, error) {
	text, err := ExtractText(filePath, maxPages)
	if err != nil {
		return nil, err
	}
	return findIdentifiers(text), nil
}

// ExtractText extracts all text from the first maxPages pages of a PDF.
// Non-positive maxPages means every page.
func ExtractText(filePath string, maxPages int) (string, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", filePath, err)
	}
	defer f.Close()

	if maxPages <= 0 || maxPages > r.NumPage() {
		maxPages = r.NumPage()
	}

	var builder strings.Builder
	for i := 1; i <= maxPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}

	return builder.String(), nil
}

func findIdentifiers(text string) []work.ExternalIdentifier {
	var ids []work.ExternalIdentifier
	for _, doi := range findDOIs(text) {
		ids = append(ids, work.ExternalIdentifier{Type: work.IDDOI, Value: doi, Relationship: work.RelSelf})
	}
	seen := make(map[string]bool)
	for _, m := range arxivPattern.FindAllStringSubmatch(text, -1) {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		ids = append(ids, work.ExternalIdentifier{Type: work.IDArXiv, Value: m[1], Relationship: work.RelSelf})
	}
	return ids
}

// findDOIs returns the distinct valid DOIs in text, in order.
func findDOIs(text string) []string {
	var dois []string
	seen := make(map[string]bool)
	for _, match := range doiPattern.FindAllString(text, -1) {
		// Remove trailing punctuation
		match = strings.TrimRight(match, ".,;:)")
		if !isValidDOI(match) || seen[match] {
			continue
		}
		seen[match] = true
		dois = append(dois, match)
	}
	return dois
}

// isValidDOI performs basic validation on a DOI.
func isValidDOI(doi string) bool {
	if len(doi) < 10 {
		return false
	}
	if !strings.HasPrefix(doi, "10.") {
		return false
	}
	slashIdx := strings.Index(doi, "/")
	if slashIdx == -1 || slashIdx >= len(doi)-1 {
		return false
	}
	return true
}
