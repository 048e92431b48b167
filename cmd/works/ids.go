package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(idsCmd)
}

var idsCmd = &cobra.Command{
	Use:   "ids",
	Short: "List every normalized external identifier of the owner's works",
	Args:  cobra.NoArgs,
	RunE:  runIDs,
}

func runIDs(cmd *cobra.Command, args []string) error {
	s := mustOpenSession()
	defer s.Close()

	keys, err := s.manager.AllExternalIDs(ctx(cmd), s.owner)
	exitOnError(err, "listing identifiers")

	if !humanOutput {
		outputJSON(keys)
		return nil
	}
	for _, k := range keys {
		strength := "weak"
		if k.Strong() {
			strength = "strong"
		}
		fmt.Printf("%-8s %-40s %s\n", k.Type, k.Value, strength)
	}
	return nil
}
