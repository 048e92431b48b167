package main

import (
	"fmt"

	"github.com/matsen/works/internal/config"
	"github.com/matsen/works/internal/grouping"
	"github.com/matsen/works/internal/works"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	groupPublic    bool
	groupAllOwners bool
)

func init() {
	groupCmd.Flags().BoolVar(&groupPublic, "public", false, "Group only public works")
	groupCmd.Flags().BoolVar(&groupAllOwners, "all-owners", false, "Group every owner in the local store")
	suggestCmd.Flags().BoolVar(&groupPublic, "public", false, "Group only public works")
	rootCmd.AddCommand(groupCmd)
	rootCmd.AddCommand(suggestCmd)
}

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Group the owner's works by shared identifiers",
	Long: `Group the owner's works into sets that describe the same work.

Works are grouped when they share a strong self identifier (DOI, PMID,
PMC, arXiv, handle, URI, EID, WOS UID, or a valid ISBN-13), directly
or through a chain of other works. Groups are ordered most recently
modified first.

Examples:
  works group
  works group --public --human
  works group --all-owners`,
	Args: cobra.NoArgs,
	RunE: runGroup,
}

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Group works and suggest further merges",
	Long: `Group the owner's works, then suggest pairs of groups that may be the
same work based on weaker shared identifiers (ISSN, other-id, part-of or
version-of relationships).

Suggestions are advisory and never change the groups.
The minimum confidence comes from suggestion_floor in config.`,
	Args: cobra.NoArgs,
	RunE: runSuggest,
}

func runGroup(cmd *cobra.Command, args []string) error {
	if groupAllOwners {
		return runGroupAllOwners(cmd)
	}

	s := mustOpenSession()
	defer s.Close()

	res, err := s.manager.WorksAsGroups(ctx(cmd), s.owner, groupPublic)
	exitOnError(err, "grouping works")

	if humanOutput {
		printGroups(res)
	} else {
		outputJSON(res)
	}
	return nil
}

func runGroupAllOwners(cmd *cobra.Command) error {
	repoRoot, cfg := findRepository()
	if resolveStoreKind(cfg) != config.StoreLocal {
		exitWithError(ExitConfigError, "--all-owners needs the local store")
	}
	if repoRoot == "" {
		repoRoot = mustFindRepository()
	}
	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	m, err := works.New(db,
		works.WithLogger(log.Logger),
		works.WithSuggestionFloor(config.ResolveFloor(cfg)),
	)
	exitOnError(err, "creating manager")

	owners, err := db.Owners(ctx(cmd))
	exitOnError(err, "listing owners")

	byOwner, err := m.GroupOwners(ctx(cmd), owners, groupPublic)
	exitOnError(err, "grouping works")

	if !humanOutput {
		outputJSON(byOwner)
		return nil
	}
	for _, o := range owners {
		fmt.Printf("── %s ──\n", o)
		printGroups(byOwner[o])
		fmt.Println()
	}
	return nil
}

func runSuggest(cmd *cobra.Command, args []string) error {
	s := mustOpenSession()
	defer s.Close()

	res, err := s.manager.GroupAndSuggest(ctx(cmd), s.owner, groupPublic)
	exitOnError(err, "grouping works")

	if !humanOutput {
		outputJSON(res)
		return nil
	}

	printGroups(res.Result)
	fmt.Println()
	if len(res.Suggestions) == 0 {
		fmt.Println("No merge suggestions")
		return nil
	}
	fmt.Printf("%d merge suggestions:\n", len(res.Suggestions))
	for _, sg := range res.Suggestions {
		fmt.Printf("  groups %d + %d  confidence %.2f\n", sg.GroupA+1, sg.GroupB+1, sg.Confidence)
		for _, k := range sg.Evidence {
			fmt.Printf("    %s\n", k)
		}
	}
	return nil
}

func printGroups(res *grouping.Result) {
	if len(res.Groups) == 0 {
		fmt.Println("No works to group")
		return
	}

	merged := 0
	for g, grp := range res.Groups {
		members := res.Members(g)
		if len(members) > 1 {
			merged++
		}
		fmt.Printf("Group %d (%d works)\n", g+1, len(members))
		for _, m := range members {
			fmt.Printf("  %-10d %s\n", m.WorkID, truncateString(m.Title, ListTitleMaxLen))
		}
		for _, k := range grp.Identifiers {
			fmt.Printf("  · %s\n", k)
		}
	}

	fmt.Printf("\n%d groups, %d with duplicates", len(res.Groups), merged)
	if res.Excluded > 0 {
		fmt.Printf(", %d non-public works excluded", res.Excluded)
	}
	fmt.Println()
}
