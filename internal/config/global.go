package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GlobalConfig is the per-user configuration stored in
// ~/.config/bibnote/config.yml.
type GlobalConfig struct {
	VaultPath string `yaml:"vault_path,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "bibnote"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/bibnote/config.yml.
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

	if cfg.VaultPath != "" {
		cfg.VaultPath = ExpandPath(cfg.VaultPath)
	}

	globalConfigCache = &cfg
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// GetVaultPath returns the configured default vault path.
func GetVaultPath() string {
	cfg, _ := LoadGlobalConfig()
	return cfg.VaultPath
}

// ErrVaultPathNotConfigured is returned when vault_path is not set.
var ErrVaultPathNotConfigured = errors.New("vault_path not configured")

// ErrVaultPathNotExist is returned when the configured vault_path doesn't exist.
var ErrVaultPathNotExist = errors.New("vault_path does not exist")

// ValidateVaultPath returns the vault path from global config after
// validation. Returns an error if not configured or missing on disk.
func ValidateVaultPath() (string, error) {
	path := GetVaultPath()
	if path == "" {
		return "", ErrVaultPathNotConfigured
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s", ErrVaultPathNotExist, path)
	}
	return path, nil
}

// HelpfulConfigMessage returns guidance shown when no vault is found.
func HelpfulConfigMessage() string {
	configPath := GlobalConfigPath()
	return fmt.Sprintf(`No bibnote vault found.

Tip: Create %s to set a default vault:
  mkdir -p %s
  echo 'vault_path: /path/to/your/vault' > %s

Or run 'bibnote config init' inside your notes folder.`,
		configPath,
		filepath.Dir(configPath),
		configPath)
}
