package main

import (
	"fmt"
	"os"

	"github.com/matsen/works/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new works repository",
	Long: `Initialize a new works repository in the current directory.

Creates:
  .works/
  ├── works.jsonl     # Empty file
  ├── config.json     # Default config (owner from --owner)
  └── cache/          # Empty directory (gitignored)`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root, err := os.Getwd()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}

	if config.IsRepository(root) {
		exitWithError(ExitError, "directory already contains a works repository")
	}

	cfg := &config.Config{Owner: ownerFlag, Store: storeFlag}
	if cfg.Owner != "" {
		mustResolveOwner(cfg)
	}

	if err := os.MkdirAll(config.CachePath(root), 0755); err != nil {
		exitWithError(ExitError, "creating cache directory: %v", err)
	}

	f, err := os.Create(config.JSONLPath(root))
	if err != nil {
		exitWithError(ExitError, "creating %s: %v", config.WorksFile, err)
	}
	f.Close()

	if err := cfg.Save(root); err != nil {
		exitWithError(ExitError, "creating %s: %v", config.ConfigFile, err)
	}

	if humanOutput {
		fmt.Printf("Initialized works repository in %s\n", root)
	} else {
		outputJSON(StatusResponse{Status: "initialized", Path: root})
	}
	return nil
}
