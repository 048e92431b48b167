// Package config handles repository configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents repository configuration stored in .works/config.json.
type Config struct {
	Owner           string  `json:"owner,omitempty"`            // ORCID iD whose works this repository holds
	Store           string  `json:"store,omitempty"`            // Work source: local or orcid
	SuggestionFloor float64 `json:"suggestion_floor,omitempty"` // Minimum suggestion confidence, 0 for the default
}

const (
	WorksDir   = ".works"
	ConfigFile = "config.json"
	WorksFile  = "works.jsonl"
	CacheDir   = "cache"
	DBFile     = "works.db"
)

// Store kinds.
const (
	StoreLocal = "local"
	StoreORCID = "orcid"
)

// ValidStores lists the supported store values.
var ValidStores = []string{StoreLocal, StoreORCID}

// WorksPath returns the path to the .works directory from a root path.
func WorksPath(root string) string {
	return filepath.Join(root, WorksDir)
}

// ConfigPath returns the path to config.json from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, WorksDir, ConfigFile)
}

// JSONLPath returns the path to works.jsonl from a root path.
func JSONLPath(root string) string {
	return filepath.Join(root, WorksDir, WorksFile)
}

// CachePath returns the path to the cache directory from a root path.
func CachePath(root string) string {
	return filepath.Join(root, WorksDir, CacheDir)
}

// DBPath returns the path to works.db from a root path.
func DBPath(root string) string {
	return filepath.Join(root, WorksDir, CacheDir, DBFile)
}

// IsRepository checks if the given path contains a works repository.
func IsRepository(root string) bool {
	info, err := os.Stat(WorksPath(root))
	return err == nil && info.IsDir()
}

// FindRepository walks up from the given path to find a works repository.
// Returns the repository root path or an error if not found.
func FindRepository(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsRepository(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("not in a works repository (no %s directory found)", WorksDir)
		}
		abs = parent
	}
}

// Load reads configuration from the repository at the given root.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &cfg, nil
}

// Save writes configuration to the repository at the given root.
func (c *Config) Save(root string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// StoreKind returns the configured store, defaulting to local.
func (c *Config) StoreKind() string {
	if c == nil || c.Store == "" {
		return StoreLocal
	}
	return c.Store
}

// ValidateStore checks that the store value is valid.
func ValidateStore(store string) error {
	if store == "" {
		return nil // Empty defaults to local
	}

	for _, valid := range ValidStores {
		if store == valid {
			return nil
		}
	}

	return fmt.Errorf("invalid store: %s (valid: %v)", store, ValidStores)
}

// ValidateFloor checks that a suggestion floor is a confidence in [0, 1].
func ValidateFloor(floor float64) error {
	if floor < 0 || floor > 1 {
		return fmt.Errorf("invalid suggestion_floor: %g (must be between 0 and 1)", floor)
	}
	return nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
