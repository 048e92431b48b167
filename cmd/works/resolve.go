package main

import (
	"fmt"
	"os"

	"github.com/matsen/works/internal/config"
	"github.com/matsen/works/internal/conflict"
	"github.com/matsen/works/internal/storage"
	"github.com/spf13/cobra"
)

var resolveDryRun bool

func init() {
	resolveCmd.Flags().BoolVar(&resolveDryRun, "dry-run", false, "Show the resolution plan without writing")
	rootCmd.AddCommand(resolveCmd)
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve git merge conflicts in works.jsonl",
	Long: `Resolve git merge conflict markers in works.jsonl.

Works on both sides of a conflict are matched by work ID, then by a shared
strong identifier. The more recently modified record wins; records with
the same timestamp are merged when complementary, otherwise the more
complete one is kept. The query database is rebuilt afterwards.`,
	Args: cobra.NoArgs,
	RunE: runResolve,
}

// ResolveResult is the response for the resolve command.
type ResolveResult struct {
	Status string                    `json:"status"`
	Works  int                       `json:"works"`
	Plans  []conflict.ResolutionPlan `json:"plans"`
}

func runResolve(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	path := config.JSONLPath(repoRoot)

	f, err := os.Open(path)
	if err != nil {
		exitWithError(ExitError, "opening works: %v", err)
	}
	works, plans, err := conflict.ResolveFile(f)
	f.Close()
	if err != nil {
		exitWithError(ExitDataError, "resolving %s: %v", config.WorksFile, err)
	}
	if plans == nil {
		plans = []conflict.ResolutionPlan{}
	}

	status := "resolved"
	switch {
	case len(plans) == 0:
		status = "clean"
	case resolveDryRun:
		status = "dry_run"
	default:
		if err := storage.WriteAll(path, works); err != nil {
			exitWithError(ExitError, "writing works: %v", err)
		}
		db := mustOpenDatabase(repoRoot)
		defer db.Close()
		if _, err := db.RebuildFromJSONL(ctx(cmd), path); err != nil {
			exitWithError(ExitDataError, "rebuilding works database: %v", err)
		}
	}

	if !humanOutput {
		outputJSON(ResolveResult{Status: status, Works: len(works), Plans: plans})
		return nil
	}
	if len(plans) == 0 {
		fmt.Println("No conflicts found")
		return nil
	}
	for _, p := range plans {
		fmt.Println(p)
	}
	if resolveDryRun {
		fmt.Printf("\n%d works would be resolved (dry run)\n", len(plans))
	} else {
		fmt.Printf("\nResolved %d works; %d works in %s\n", len(plans), len(works), config.WorksFile)
	}
	return nil
}
