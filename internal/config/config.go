package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the project configuration file looked up by LoadConfig.
const FileName = "surmigrate.toml"

// EnvironmentConfig describes a single named environment from surmigrate.toml.
type EnvironmentConfig struct {
	Backend   string `toml:"backend"`
	URL       string `toml:"url"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
}

type Config struct {
	DefaultEnvironment string                       `toml:"default_environment"`
	MigrationsDir      string                       `toml:"migrations_dir"`
	Extensions         []string                     `toml:"extensions"`
	Environments       map[string]EnvironmentConfig `toml:"environments"`
	ConfigFilePath     string                       `toml:"-"`
}

// ConfigDir is the directory holding the config file, or "" when none was found.
func (c *Config) ConfigDir() string {
	if c == nil || c.ConfigFilePath == "" {
		return ""
	}
	return filepath.Dir(c.ConfigFilePath)
}

// LoadConfig looks for surmigrate.toml starting in the working directory.
func LoadConfig() (*Config, error) {
	startDir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return LoadConfigFrom(startDir)
}

// LoadConfigFrom walks up from startDir until it finds surmigrate.toml or
// reaches a project root. No file is not an error.
func LoadConfigFrom(startDir string) (*Config, error) {
	dir := startDir
	for {
		// Check if surmigrate.toml exists in current directory
		configPath := filepath.Join(dir, FileName)
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, err
			}

			var config Config
			if err := toml.Unmarshal(data, &config); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
			}

			config.ConfigFilePath = configPath
			return &config, nil
		}

		// Check if we've reached a project boundary
		if isProjectRoot(dir) {
			break
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}

	return &Config{}, nil
}

// isProjectRoot checks if the directory is a project root based on common markers
func isProjectRoot(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(dir, "package.json")); err == nil {
		return true
	}
	return false
}
