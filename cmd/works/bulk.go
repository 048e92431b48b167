package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(bulkCmd)
}

var bulkCmd = &cobra.Command{
	Use:   "bulk <id,id,...> [id...]",
	Short: "Fetch several works by ID in one call",
	Long: `Fetch up to 100 works by ID, preserving the requested order.

IDs may be comma-separated, given as separate arguments, or both.
Missing and malformed IDs are reported alongside the works found.

Examples:
  works bulk 733536,733537,733538
  works bulk 733536 733537`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBulk,
}

func runBulk(cmd *cobra.Command, args []string) error {
	list := strings.Join(args, ",")

	s := mustOpenSession()
	defer s.Close()

	res, err := s.manager.FindWorkBulk(ctx(cmd), s.owner, list)
	exitOnError(err, "fetching works")

	if !humanOutput {
		outputJSON(res)
		return nil
	}

	for _, w := range res.Resolved {
		printWorkLine(w)
	}
	for _, f := range res.Failures {
		fmt.Printf("  [%d] %q: %s\n", f.Position, f.Input, f.Message)
	}
	fmt.Printf("\n%d of %d resolved\n", len(res.Resolved), len(res.Requested))
	return nil
}
