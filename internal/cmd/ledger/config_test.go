package ledger

import (
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("ledger", flag.ContinueOnError)
	cfg, args, err := ParseConfig(fs, []string{"verify"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "centbook.db" {
		t.Fatalf("expected default db path, got %q", cfg.DBPath)
	}
	if cfg.UserID != "local" {
		t.Fatalf("expected default user, got %q", cfg.UserID)
	}
	if len(args) != 1 || args[0] != "verify" {
		t.Fatalf("expected subcommand args, got %v", args)
	}
}

func TestParseConfigFlagsOverrideEnv(t *testing.T) {
	t.Setenv("CENTBOOK_DB_PATH", "/tmp/env.db")
	t.Setenv("CENTBOOK_USER_ID", "env-user")

	fs := flag.NewFlagSet("ledger", flag.ContinueOnError)
	cfg, args, err := ParseConfig(fs, []string{"-db", "/tmp/flag.db", "movements", "acc-1"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "/tmp/flag.db" {
		t.Fatalf("flag must override env, got %q", cfg.DBPath)
	}
	if cfg.UserID != "env-user" {
		t.Fatalf("expected env user, got %q", cfg.UserID)
	}
	if len(args) != 2 || args[0] != "movements" || args[1] != "acc-1" {
		t.Fatalf("unexpected args %v", args)
	}
}
