package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matsen/works/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set repository configuration values.

Usage:
  works config                              # Show all config
  works config owner                        # Get specific value
  works config owner 0000-0002-1825-0097    # Set value
  works config store orcid                  # Read works from the ORCID API
  works config suggestion-floor 0.7         # Only suggest stronger merges

Keys:
  owner             ORCID iD whose works this repository holds
  store             Work store (local, orcid)
  suggestion-floor  Minimum merge suggestion confidence (0 for the default 0.5)`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

// ConfigResponse is the response for config get commands.
type ConfigResponse struct {
	Owner           string  `json:"owner"`
	Store           string  `json:"store"`
	SuggestionFloor float64 `json:"suggestion_floor"`
}

// UpdateResponse is the response for config set commands.
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)

	if len(args) == 0 {
		if humanOutput {
			fmt.Printf("owner:            %s\n", cfg.Owner)
			fmt.Printf("store:            %s\n", cfg.StoreKind())
			fmt.Printf("suggestion-floor: %g\n", cfg.SuggestionFloor)
		} else {
			outputJSON(ConfigResponse{
				Owner:           cfg.Owner,
				Store:           cfg.StoreKind(),
				SuggestionFloor: cfg.SuggestionFloor,
			})
		}
		return nil
	}

	key := args[0]
	normalizedKey := normalizeKey(key)

	if len(args) == 1 {
		var value string
		switch normalizedKey {
		case "owner":
			value = cfg.Owner
		case "store":
			value = cfg.StoreKind()
		case "suggestion-floor":
			value = strconv.FormatFloat(cfg.SuggestionFloor, 'g', -1, 64)
		default:
			exitWithError(ExitError, "unknown configuration key: %s", key)
		}
		if humanOutput {
			fmt.Println(value)
		} else {
			outputJSON(map[string]string{strings.ReplaceAll(normalizedKey, "-", "_"): value})
		}
		return nil
	}

	value := args[1]

	switch normalizedKey {
	case "owner":
		cfg.Owner = mustResolveOwner(&config.Config{Owner: value})
	case "store":
		if err := config.ValidateStore(value); err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}
		cfg.Store = value
	case "suggestion-floor":
		floor, err := strconv.ParseFloat(value, 64)
		if err != nil {
			exitWithError(ExitConfigError, "invalid suggestion-floor: %s", value)
		}
		if err := config.ValidateFloor(floor); err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}
		cfg.SuggestionFloor = floor
	default:
		exitWithError(ExitError, "unknown configuration key: %s", key)
	}

	if err := cfg.Save(repoRoot); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}

	if humanOutput {
		fmt.Printf("Updated %s to %s\n", key, value)
	} else {
		outputJSON(UpdateResponse{
			Status: "updated",
			Key:    normalizedKey,
			Value:  value,
		})
	}
	return nil
}

// normalizeKey converts key formats (suggestion_floor, Suggestion-Floor) to suggestion-floor.
func normalizeKey(key string) string {
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, "_", "-")
	return key
}
