package main

import (
	"fmt"

	"github.com/matsen/works/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the query layer from source data",
	Long: `Rebuild the SQLite query database from the JSONL source file.

Use this after pulling changes from git, after 'works sync', or if the
database becomes corrupted.`,
	RunE: runRebuild,
}

// RebuildResult is the response for the rebuild command.
type RebuildResult struct {
	Status string `json:"status"`
	Works  int    `json:"works"`
}

func runRebuild(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	count, err := db.RebuildFromJSONL(ctx(cmd), config.JSONLPath(repoRoot))
	if err != nil {
		exitWithError(ExitDataError, "rebuilding works database: %v", err)
	}

	if humanOutput {
		fmt.Printf("Rebuilt query database with %d works\n", count)
	} else {
		outputJSON(RebuildResult{Status: "rebuilt", Works: count})
	}
	return nil
}
