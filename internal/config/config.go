package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// EnvironmentConfig describes a single named environment from pgdelta.toml.
type EnvironmentConfig struct {
	Description       string `toml:"description"`
	DatabaseURL       string `toml:"database_url"`
	ShadowDatabaseURL string `toml:"shadow_database_url"`
	SchemaPath        string `toml:"schema_path"`
}

// Config is the parsed pgdelta.toml. Top-level values act as defaults for
// every environment; a named [environments.<name>] block overrides them.
type Config struct {
	DefaultEnvironment string                       `toml:"default_environment"`
	DatabaseURL        string                       `toml:"database_url"`
	ShadowDatabaseURL  string                       `toml:"shadow_database_url"`
	SchemaPath         string                       `toml:"schema_path"`
	Environments       map[string]EnvironmentConfig `toml:"environments"`
	ConfigFilePath     string                       `toml:"-"`

	// configDir overrides the directory derived from ConfigFilePath; tests
	// use it to point dotenv resolution at a temp directory.
	configDir string
}

// ConfigDir returns the directory that contains pgdelta.toml.
func (c *Config) ConfigDir() string {
	if c == nil {
		return ""
	}
	if c.configDir != "" {
		return c.configDir
	}
	if c.ConfigFilePath != "" {
		return filepath.Dir(c.ConfigFilePath)
	}
	return ""
}

// ProjectDir returns the project root, which is always the directory that
// contains pgdelta.toml (the same value as ConfigDir).
func (c *Config) ProjectDir() string {
	return c.ConfigDir()
}

// PrintLoadConfigErrorDetails prints row/column detail for TOML decode errors.
func PrintLoadConfigErrorDetails(err error) {
	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		fmt.Println(derr.String())
		row, col := derr.Position()
		fmt.Printf("Error occurred at row %d, column %d\n", row, col)
	}
}

func LoadConfig() (*Config, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	config.ConfigFilePath = configPath
	return &config, nil
}

func getConfigPath() (string, error) {
	startDir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := startDir
	for {
		// Check if pgdelta.toml exists in current directory
		configPath := filepath.Join(dir, "pgdelta.toml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
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

	return "", fmt.Errorf("pgdelta.toml not found")
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

func GetSchemaDir() (string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return "", err
	}
	configDir := filepath.Dir(configPath)
	schemaDir := filepath.Join(configDir, "schema")
	if info, err := os.Stat(schemaDir); err == nil && info.IsDir() {
		return schemaDir, nil
	}
	return "", fmt.Errorf("schema directory not found; try creating schema/ next to pgdelta.toml")
}
