package main

import (
	"fmt"

	"github.com/matsen/works/internal/config"
	"github.com/matsen/works/internal/export"
	"github.com/matsen/works/internal/work"
	"github.com/spf13/cobra"
)

var (
	exportBibTeX bool
	exportAppend string
	exportPublic bool
	exportAll    bool
)

func init() {
	exportCmd.Flags().BoolVar(&exportBibTeX, "bibtex", false, "Export in BibTeX format")
	exportCmd.Flags().StringVar(&exportAppend, "append", "", "Append to existing .bib file, skipping works it already cites")
	exportCmd.Flags().BoolVar(&exportPublic, "public", false, "Export only public works")
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "Export every work instead of one per group")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the owner's works as a deduplicated bibliography",
	Long: `Export the owner's works, one entry per group of duplicates.

The most recently modified work of each group represents it. With --all,
every work is exported.

Examples:
  works export --bibtex
  works export --bibtex --public
  works export --bibtex --append refs.bib`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

// ExportResult is the JSON response for an --append export.
type ExportResult struct {
	Exported int    `json:"exported"`
	Skipped  int    `json:"skipped"`
	Path     string `json:"path"`
}

func runExport(cmd *cobra.Command, args []string) error {
	if !exportBibTeX {
		exitWithError(ExitError, "no export format specified; use --bibtex")
	}

	s := mustOpenSession()
	defer s.Close()

	list, err := s.manager.FindWorks(ctx(cmd), s.owner)
	exitOnError(err, "finding works")

	if !exportAll {
		res, err := s.manager.GroupWorks(ctx(cmd), work.Summaries(list), exportPublic)
		exitOnError(err, "grouping works")
		list = export.Representatives(res, list)
	} else if exportPublic {
		list, err = s.manager.FindPublicWorks(ctx(cmd), s.owner)
		exitOnError(err, "finding works")
	}

	if exportAppend == "" {
		fmt.Print(export.ToBibTeXList(list))
		return nil
	}

	path := config.ExpandPath(exportAppend)
	idx, err := export.ParseBibTeXFile(path)
	if err != nil {
		exitWithError(ExitDataError, "parsing %s: %v", path, err)
	}

	out := ExportResult{Path: path}
	for _, w := range list {
		if idx.HasWork(w) {
			out.Skipped++
			continue
		}
		if err := export.AppendToBibFile(path, export.ToBibTeX(w)); err != nil {
			exitWithError(ExitError, "writing %s: %v", path, err)
		}
		idx.Add(w)
		out.Exported++
	}

	if humanOutput {
		fmt.Printf("Exported %d works to %s (%d already present)\n", out.Exported, path, out.Skipped)
	} else {
		outputJSON(out)
	}
	return nil
}
