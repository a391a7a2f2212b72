package config

import (
	"os"
	"path/filepath"
	"testing"
)

const exampleConfig = `default_environment = "local"

[environments.local]
database_url = "postgres://postgres@localhost:5432/app"
`

// compareConfigPaths compares two paths, resolving symlinks
func compareConfigPaths(t *testing.T, expected, actual string) {
	t.Helper()

	expectedResolved, err := filepath.EvalSymlinks(expected)
	if err != nil {
		expectedResolved = expected
	}
	actualResolved, err := filepath.EvalSymlinks(actual)
	if err != nil {
		actualResolved = actual
	}

	if expectedResolved != actualResolved {
		t.Errorf("Expected ConfigFilePath=%q, got %q", expectedResolved, actualResolved)
	}
}

func withWorkingDir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(orig); err != nil {
			t.Fatalf("Chdir back: %v", err)
		}
	})
}

func TestLoadConfigInCurrentDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "pgdelta.toml")
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	withWorkingDir(t, tmpDir)

	config, err := LoadConfig()
	if err != nil {
		PrintLoadConfigErrorDetails(err)
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if config.DefaultEnvironment != "local" {
		t.Errorf("Expected default_environment local, got %q", config.DefaultEnvironment)
	}
	local, ok := config.Environments["local"]
	if !ok {
		t.Fatalf("Expected local environment, got %v", config.Environments)
	}
	if local.DatabaseURL != "postgres://postgres@localhost:5432/app" {
		t.Errorf("Unexpected database_url %q", local.DatabaseURL)
	}
	compareConfigPaths(t, configPath, config.ConfigFilePath)
}

func TestLoadConfigWalksUpToParent(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "pgdelta.toml")
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	nested := filepath.Join(tmpDir, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	withWorkingDir(t, nested)

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	compareConfigPaths(t, configPath, config.ConfigFilePath)
}

func TestLoadConfigStopsAtProjectRoot(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "pgdelta.toml")
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	// A go.mod below the config marks a project boundary; the walk must not
	// escape it to find the config above.
	project := filepath.Join(tmpDir, "project")
	if err := os.MkdirAll(project, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(project, "go.mod"), []byte("module example.com/x\n"), 0o600); err != nil {
		t.Fatalf("write go.mod: %v", err)
	}
	withWorkingDir(t, project)

	if _, err := LoadConfig(); err == nil {
		t.Fatal("Expected LoadConfig to fail below a project boundary, got nil error")
	}
}

func TestLoadConfigMalformedTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "pgdelta.toml")
	if err := os.WriteFile(configPath, []byte("[environments.local\ndatabase_url = "), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	withWorkingDir(t, tmpDir)

	if _, err := LoadConfig(); err == nil {
		t.Fatal("Expected LoadConfig to fail on malformed TOML, got nil error")
	}
}

func TestConfigDirFromConfigFilePath(t *testing.T) {
	c := &Config{ConfigFilePath: filepath.Join("some", "dir", "pgdelta.toml")}
	if got := c.ConfigDir(); got != filepath.Join("some", "dir") {
		t.Errorf("ConfigDir() = %q", got)
	}
}
