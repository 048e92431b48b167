package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/works/config.yml.
type GlobalConfig struct {
	DefaultOwner    string  `yaml:"default_owner,omitempty"`
	ORCIDAPIURL     string  `yaml:"orcid_api_url,omitempty"`
	ORCIDToken      string  `yaml:"orcid_token,omitempty"`
	LogLevel        string  `yaml:"log_level,omitempty"`
	SuggestionFloor float64 `yaml:"suggestion_floor,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "works"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"

	// Environment variables that override global config values.
	EnvORCIDToken = "ORCID_TOKEN"
	EnvOwner      = "WORKS_OWNER"
)

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/works/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	path := GlobalConfigPath()
	if path == "" {
		return &GlobalConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}
	if err := ValidateFloor(cfg.SuggestionFloor); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}

	globalConfigCache = &cfg
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// GetConfigValue returns the environment variable if set, else configValue.
func GetConfigValue(envKey, configValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return configValue
}

// GetORCIDToken returns the ORCID bearer token from the environment or
// global config.
func GetORCIDToken() string {
	cfg, err := LoadGlobalConfig()
	if err != nil {
		return os.Getenv(EnvORCIDToken)
	}
	return GetConfigValue(EnvORCIDToken, cfg.ORCIDToken)
}

// ResolveOwner picks the owner to operate on: an explicit value first,
// then the repository config, then WORKS_OWNER, then default_owner.
func ResolveOwner(explicit string, repo *Config) string {
	if explicit != "" {
		return explicit
	}
	if repo != nil && repo.Owner != "" {
		return repo.Owner
	}
	cfg, err := LoadGlobalConfig()
	if err != nil {
		return os.Getenv(EnvOwner)
	}
	return GetConfigValue(EnvOwner, cfg.DefaultOwner)
}

// ResolveFloor picks the suggestion floor: the repository config, then the
// global config. Zero means the grouping default.
func ResolveFloor(repo *Config) float64 {
	if repo != nil && repo.SuggestionFloor > 0 {
		return repo.SuggestionFloor
	}
	cfg, err := LoadGlobalConfig()
	if err != nil {
		return 0
	}
	return cfg.SuggestionFloor
}

// HelpfulConfigMessage returns a helpful message when no owner is configured.
func HelpfulConfigMessage() string {
	configPath := GlobalConfigPath()
	return fmt.Sprintf(`No owner configured.

Tip: pass --owner, set %s, or create %s:
  mkdir -p %s
  echo 'default_owner: 0000-0002-1825-0097' > %s`,
		EnvOwner,
		configPath,
		filepath.Dir(configPath),
		configPath)
}
