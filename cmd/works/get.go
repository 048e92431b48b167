package main

import (
	"fmt"
	"strings"

	"github.com/matsen/works/internal/bulk"
	"github.com/matsen/works/internal/work"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(getCmd)
}

var getCmd = &cobra.Command{
	Use:   "get <work-id>",
	Short: "Get a single work by ID",
	Long: `Get a single work by its store-assigned ID (ORCID put-code).

Example:
  works get 733536`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	id, err := bulk.ParseID(args[0])
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	s := mustOpenSession()
	defer s.Close()

	w, err := s.manager.GetWork(ctx(cmd), s.owner, id)
	exitOnError(err, "getting work")

	if humanOutput {
		printWorkDetail(*w)
	} else {
		outputJSON(w)
	}
	return nil
}

func printWorkDetail(w work.Work) {
	fmt.Println(w.WorkID)
	fmt.Println(strings.Repeat("═", DetailTitleMaxLen))
	fmt.Println()

	fmt.Printf("Title:       %s\n", w.Title)
	if w.Type != "" {
		fmt.Printf("Type:        %s\n", w.Type)
	}
	if len(w.Authors) > 0 {
		names := make([]string, len(w.Authors))
		for i, a := range w.Authors {
			names[i] = a.Name
		}
		fmt.Printf("Authors:     %s\n", strings.Join(names, ", "))
	}
	if w.Venue != "" {
		fmt.Printf("Venue:       %s\n", w.Venue)
	}
	fmt.Printf("Date:        %s\n", formatDate(w.Published))
	fmt.Printf("Visibility:  %s\n", w.Visibility)
	if w.Featured {
		fmt.Println("Featured:    yes")
	}
	if len(w.Identifiers) > 0 {
		fmt.Printf("Identifiers: %s\n", formatIdentifiers(w.Identifiers))
	}
	if w.URL != "" {
		fmt.Printf("URL:         %s\n", w.URL)
	}
	if w.ShortDescription != "" {
		fmt.Println()
		fmt.Println(w.ShortDescription)
	}
}
