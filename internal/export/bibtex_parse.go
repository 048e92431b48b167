package export

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/matsen/works/internal/extid"
	"github.com/matsen/works/internal/work"
)

// BibTeXIndex indexes existing BibTeX entries so appends skip works the
// file already cites.
type BibTeXIndex struct {
	// Keys maps citation keys to true for existence check
	Keys map[string]bool
	// Identifiers maps normalized DOI and arXiv keys to citation keys
	Identifiers map[extid.Key]string
}

// NewBibTeXIndex creates an empty BibTeX index.
func NewBibTeXIndex() *BibTeXIndex {
	return &BibTeXIndex{
		Keys:        make(map[string]bool),
		Identifiers: make(map[extid.Key]string),
	}
}

var (
	entryStartRegex = regexp.MustCompile(`@\w+\{([^,]+),`)
	doiFieldRegex   = regexp.MustCompile(`(?i)^\s*doi\s*=\s*[\{"]([^\}"]+)[\}"]`)
	eprintRegex     = regexp.MustCompile(`(?i)^\s*eprint\s*=\s*[\{"]([^\}"]+)[\}"]`)
)

// HasWork reports whether the file already cites w. Any shared DOI or
// arXiv id counts; the citation key is the fallback.
func (idx *BibTeXIndex) HasWork(w work.Work) bool {
	for _, id := range w.Identifiers {
		if !id.IsSelf() {
			continue
		}
		k, ok := extid.Normalize(id)
		if !ok {
			continue
		}
		if _, exists := idx.Identifiers[k]; exists {
			return true
		}
	}
	return idx.Keys[CitationKey(w)]
}

// Add records w as present in the index.
func (idx *BibTeXIndex) Add(w work.Work) {
	key := CitationKey(w)
	idx.Keys[key] = true
	for _, id := range w.Identifiers {
		if k, ok := extid.Normalize(id); ok && id.IsSelf() {
			idx.Identifiers[k] = key
		}
	}
}

// ParseBibTeXFile builds an index from an existing .bib file.
// Returns an empty index if the file doesn't exist or is empty.
func ParseBibTeXFile(path string) (*BibTeXIndex, error) {
	idx := NewBibTeXIndex()

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	var currentKey string

	for scanner.Scan() {
		line := scanner.Text()

		if matches := entryStartRegex.FindStringSubmatch(line); len(matches) > 1 {
			currentKey = strings.TrimSpace(matches[1])
			idx.Keys[currentKey] = true
		}
		if currentKey == "" {
			continue
		}

		if matches := doiFieldRegex.FindStringSubmatch(line); len(matches) > 1 {
			idx.addIdentifier(work.IDDOI, matches[1], currentKey)
		}
		if matches := eprintRegex.FindStringSubmatch(line); len(matches) > 1 {
			idx.addIdentifier(work.IDArXiv, matches[1], currentKey)
		}
	}

	return idx, scanner.Err()
}

func (idx *BibTeXIndex) addIdentifier(t work.IDType, value, citationKey string) {
	k, ok := extid.Normalize(work.ExternalIdentifier{Type: t, Value: value, Relationship: work.RelSelf})
	if ok {
		idx.Identifiers[k] = citationKey
	}
}

// AppendToBibFile appends BibTeX content to a file.
func AppendToBibFile(path, content string) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	// Ensure we start on a new line
	_, err = file.WriteString("\n" + content)
	return err
}
