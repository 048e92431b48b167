package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(infoCmd)
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the owners and work counts in the local store",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

// OwnerInfo is one owner's entry in the info response.
type OwnerInfo struct {
	Owner string `json:"owner"`
	Works int    `json:"works"`
}

// InfoResult is the response for the info command.
type InfoResult struct {
	Path   string      `json:"path"`
	Works  int         `json:"works"`
	Owners []OwnerInfo `json:"owners"`
}

func runInfo(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	owners, err := db.Owners(ctx(cmd))
	exitOnError(err, "listing owners")

	out := InfoResult{Path: repoRoot, Owners: []OwnerInfo{}}
	for _, o := range owners {
		n, err := db.Count(ctx(cmd), o)
		exitOnError(err, "counting works for %s", o)
		out.Owners = append(out.Owners, OwnerInfo{Owner: o, Works: n})
		out.Works += n
	}

	if !humanOutput {
		outputJSON(out)
		return nil
	}
	fmt.Printf("Repository: %s\n", out.Path)
	for _, o := range out.Owners {
		fmt.Printf("  %s  %d works\n", o.Owner, o.Works)
	}
	fmt.Printf("%d works total\n", out.Works)
	return nil
}
