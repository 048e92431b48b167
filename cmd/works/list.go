package main

import (
	"fmt"

	"github.com/matsen/works/internal/author"
	"github.com/matsen/works/internal/work"
	"github.com/spf13/cobra"
)

var (
	listPublic  bool
	listAuthors []string
)

func init() {
	listCmd.Flags().BoolVar(&listPublic, "public", false, "Only list public works")
	listCmd.Flags().StringArrayVarP(&listAuthors, "author", "a", nil, "Filter by contributor (repeatable, AND logic; name or ORCID iD)")
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(featuredCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the owner's works",
	Long: `List the owner's works in store order.

Examples:
  works list
  works list --public --human
  works list -a "Yu, Timothy" -a Bloom`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var featuredCmd = &cobra.Command{
	Use:   "featured",
	Short: "List the owner's featured works",
	Args:  cobra.NoArgs,
	RunE:  runFeatured,
}

func runList(cmd *cobra.Command, args []string) error {
	s := mustOpenSession()
	defer s.Close()

	var (
		list []work.Work
		err  error
	)
	if listPublic {
		list, err = s.manager.FindPublicWorks(ctx(cmd), s.owner)
	} else {
		list, err = s.manager.FindWorks(ctx(cmd), s.owner)
	}
	exitOnError(err, "listing works")

	if len(listAuthors) > 0 {
		queries := make([]author.Query, len(listAuthors))
		for i, a := range listAuthors {
			queries[i] = author.ParseQuery(a)
		}
		list = author.Filter(list, queries)
	}

	outputWorks(list, "No works found")
	return nil
}

func runFeatured(cmd *cobra.Command, args []string) error {
	s := mustOpenSession()
	defer s.Close()

	list, err := s.manager.FeaturedWorks(ctx(cmd), s.owner)
	exitOnError(err, "listing featured works")

	outputWorks(list, "No featured works")
	return nil
}

func outputWorks(list []work.Work, empty string) {
	if !humanOutput {
		if list == nil {
			list = []work.Work{}
		}
		outputJSON(list)
		return
	}
	if len(list) == 0 {
		fmt.Println(empty)
		return
	}
	for _, w := range list {
		printWorkLine(w)
	}
	fmt.Printf("\n%d works\n", len(list))
}
