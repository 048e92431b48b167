package main

import (
	"fmt"

	"github.com/matsen/works/internal/config"
	"github.com/matsen/works/internal/extid"
	"github.com/matsen/works/internal/grouping"
	"github.com/matsen/works/internal/pdf"
	"github.com/matsen/works/internal/work"
	"github.com/spf13/cobra"
)

var matchPDFPages int

func init() {
	matchPDFCmd.Flags().IntVar(&matchPDFPages, "pages", pdf.DefaultMaxPages, "Number of leading pages to search (0 for all)")
	rootCmd.AddCommand(matchPDFCmd)
}

var matchPDFCmd = &cobra.Command{
	Use:   "match-pdf <file.pdf>",
	Short: "Find which work group a PDF belongs to",
	Long: `Extract DOIs and arXiv ids from the first pages of a PDF and report
the group of the owner's works that carries each of them.

Example:
  works match-pdf ~/papers/smith2024.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runMatchPDF,
}

// PDFMatch is one identifier found in a PDF and the group it resolves to.
type PDFMatch struct {
	Identifier extid.Key `json:"identifier"`
	Group      int       `json:"group"` // -1 when no group carries the identifier
	WorkIDs    []int64   `json:"work_ids"`
	Related    []int64   `json:"related,omitempty"` // Works citing it as part-of, version-of, or weak self
}

// MatchPDFResult is the response for the match-pdf command.
type MatchPDFResult struct {
	Path    string     `json:"path"`
	Matches []PDFMatch `json:"matches"`
}

func runMatchPDF(cmd *cobra.Command, args []string) error {
	path := config.ExpandPath(args[0])

	ids, err := pdf.ExtractIdentifiers(path, matchPDFPages)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	s := mustOpenSession()
	defer s.Close()

	res, err := s.manager.WorksAsGroups(ctx(cmd), s.owner, false)
	exitOnError(err, "grouping works")

	out := MatchPDFResult{Path: path, Matches: matchIdentifiers(res, ids)}

	// The local index also knows non-self and weak identifiers.
	if s.db != nil {
		for i, m := range out.Matches {
			related, err := s.db.FetchByKey(ctx(cmd), s.owner, m.Identifier)
			exitOnError(err, "looking up %s", m.Identifier)
			for _, w := range related {
				if !containsID(m.WorkIDs, w.WorkID) {
					out.Matches[i].Related = append(out.Matches[i].Related, w.WorkID)
				}
			}
		}
	}

	if !humanOutput {
		outputJSON(out)
		return nil
	}
	if len(out.Matches) == 0 {
		fmt.Println("No identifiers found in PDF")
		return nil
	}
	for _, m := range out.Matches {
		switch {
		case m.Group >= 0:
			fmt.Printf("%s: group %d, works %v\n", m.Identifier, m.Group+1, m.WorkIDs)
		case len(m.Related) > 0:
			fmt.Printf("%s: related works %v\n", m.Identifier, m.Related)
		default:
			fmt.Printf("%s: no matching works\n", m.Identifier)
		}
	}
	return nil
}

// matchIdentifiers resolves each distinct identifier to the group holding it.
func matchIdentifiers(res *grouping.Result, ids []work.ExternalIdentifier) []PDFMatch {
	matches := []PDFMatch{}
	seen := make(map[extid.Key]bool)
	for _, id := range ids {
		k, ok := extid.Normalize(id)
		if !ok || seen[k] {
			continue
		}
		seen[k] = true

		m := PDFMatch{Identifier: k, Group: -1, WorkIDs: []int64{}}
		if g, ok := res.GroupWithKey(k); ok {
			m.Group = g
			for _, s := range res.Members(g) {
				m.WorkIDs = append(m.WorkIDs, s.WorkID)
			}
		}
		matches = append(matches, m)
	}
	return matches
}

func containsID(ids []int64, id int64) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
