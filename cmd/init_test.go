package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitCreatesConfigAndSchemaDir(t *testing.T) {
	tmpDir := t.TempDir()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(orig); err != nil {
			t.Fatalf("Chdir back: %v", err)
		}
	})

	initCmd.Run(initCmd, nil)

	if _, err := os.Stat(filepath.Join(tmpDir, "pgdelta.toml")); err != nil {
		t.Error("expected pgdelta.toml to be created")
	}
	info, err := os.Stat(filepath.Join(tmpDir, "schema"))
	if err != nil || !info.IsDir() {
		t.Error("expected schema/ directory to be created")
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "schema", "00_readme.sql")); err != nil {
		t.Error("expected schema/00_readme.sql to be created")
	}
}
