package config

import (
	"os"
	"path/filepath"
	"testing"
)

type envTestConfig struct {
	Path string `env:"CENTBOOK_TEST_DB_PATH" envDefault:"ledger.db"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Path != "ledger.db" {
		t.Fatalf("expected default path ledger.db, got %q", cfg.Path)
	}
}

func TestParseEnvOverride(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("CENTBOOK_TEST_DB_PATH", "/tmp/other.db")

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Path != "/tmp/other.db" {
		t.Fatalf("expected overridden path, got %q", cfg.Path)
	}
}

func TestLoadDotenvMissingFile(t *testing.T) {
	if err := LoadDotenv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("expected missing dotenv to be ignored, got %v", err)
	}
}

func TestLoadDotenvSetsVariables(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("CENTBOOK_TEST_DOTENV=from-file\n"), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}
	t.Setenv("CENTBOOK_TEST_DOTENV", "")
	_ = os.Unsetenv("CENTBOOK_TEST_DOTENV")

	if err := LoadDotenv(path); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}
	if value := os.Getenv("CENTBOOK_TEST_DOTENV"); value != "from-file" {
		t.Fatalf("expected value from file, got %q", value)
	}
}
