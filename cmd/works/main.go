// Package main provides the works CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/matsen/works/internal/config"
	"github.com/matsen/works/internal/orcid"
	"github.com/matsen/works/internal/storage"
	"github.com/matsen/works/internal/works"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	ownerFlag   string
	storeFlag   string
	logLevel    string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// SilenceErrors is set, so cobra errors (bad flags) are printed here.
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "works",
	Short: "Group and deduplicate a researcher's scholarly works",
	Long: `works groups a researcher's scholarly works by shared external identifiers
(DOI, PMID, arXiv id, ISBN, ...), proposes weaker merges between groups,
and answers bulk and featured-work queries.

Works come from a local git-versionable JSONL file with an ephemeral SQLite
index, or directly from the ORCID public API.
All commands output JSON by default for AI agent integration.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&ownerFlag, "owner", "", "ORCID iD of the researcher (default from config)")
	rootCmd.PersistentFlags().StringVar(&storeFlag, "store", "", "Work store: local or orcid (default from config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default warn)")
	rootCmd.Version = Version
}

// setup loads .env and configures logging before any command runs.
func setup(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	level := logLevel
	if level == "" {
		if g, err := config.LoadGlobalConfig(); err == nil {
			level = g.LogLevel
		}
	}
	if level == "" {
		level = "warn"
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

	return config.ValidateStore(storeFlag)
}

// findRepository looks for a repository from the current directory.
// It returns an empty root when none is found.
func findRepository() (string, *config.Config) {
	cwd, err := os.Getwd()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}
	root, err := config.FindRepository(cwd)
	if err != nil {
		return "", nil
	}
	return root, mustLoadConfig(root)
}

// mustFindRepository finds the repository, exits on error.
func mustFindRepository() string {
	root, _ := findRepository()
	if root == "" {
		exitWithError(ExitConfigError, "not in a works repository (no %s directory found)\n\nRun 'works init' to create one.", config.WorksDir)
	}
	return root
}

// mustLoadConfig loads configuration, exits on error.
func mustLoadConfig(repoRoot string) *config.Config {
	cfg, err := config.Load(repoRoot)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// mustOpenDatabase opens the SQLite database, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenDatabase(repoRoot string) *storage.DB {
	if err := os.MkdirAll(config.CachePath(repoRoot), 0755); err != nil {
		exitWithError(ExitError, "creating cache directory: %v", err)
	}
	db, err := storage.OpenDB(config.DBPath(repoRoot))
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}

// mustResolveOwner picks the owner from --owner, repository, or global
// config, and validates it as an ORCID iD.
func mustResolveOwner(cfg *config.Config) string {
	owner := config.ResolveOwner(ownerFlag, cfg)
	if owner == "" {
		fmt.Fprintln(os.Stderr, config.HelpfulConfigMessage())
		os.Exit(ExitConfigError)
	}
	if err := orcid.ValidateID(owner); err != nil {
		exitWithError(ExitDataError, "invalid owner: %v", err)
	}
	return owner
}

// newORCIDClient builds an ORCID client from global config and environment.
func newORCIDClient() *orcid.Client {
	opts := []orcid.ClientOption{
		orcid.WithToken(config.GetORCIDToken()),
		orcid.WithLogger(log.Logger),
	}
	if g, err := config.LoadGlobalConfig(); err == nil && g.ORCIDAPIURL != "" {
		opts = append(opts, orcid.WithBaseURL(g.ORCIDAPIURL))
	}
	return orcid.NewClient(opts...)
}

// resolveStoreKind picks the work store: --store first, then the
// repository config, then local.
func resolveStoreKind(cfg *config.Config) string {
	if storeFlag != "" {
		return storeFlag
	}
	return cfg.StoreKind()
}

// session is everything a read command needs.
type session struct {
	manager *works.Manager
	owner   string
	db      *storage.DB // nil for the ORCID store
}

func (s *session) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

// mustOpenSession selects the work store and builds a manager over it.
// The local store needs a repository; the ORCID store does not.
func mustOpenSession() *session {
	root, cfg := findRepository()
	kind := resolveStoreKind(cfg)

	s := &session{owner: mustResolveOwner(cfg)}
	var store works.Store
	switch kind {
	case config.StoreORCID:
		store = newORCIDClient()
	default:
		if root == "" {
			root = mustFindRepository()
		}
		s.db = mustOpenDatabase(root)
		store = s.db
	}

	m, err := works.New(store,
		works.WithLogger(log.Logger),
		works.WithSuggestionFloor(config.ResolveFloor(cfg)),
	)
	if err != nil {
		s.Close()
		exitWithError(ExitError, "creating manager: %v", err)
	}
	s.manager = m
	return s
}

// exitOnError maps an operation error to an exit code and exits.
func exitOnError(err error, format string, args ...any) {
	if err == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	exitWithError(exitCodeFor(err), "%s: %v", msg, err)
}

// ctx returns the command context, falling back to Background.
func ctx(cmd *cobra.Command) context.Context {
	if c := cmd.Context(); c != nil {
		return c
	}
	return context.Background()
}
