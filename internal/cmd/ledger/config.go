// Package ledger parses ledger command flags and runs the CLI subcommands.
package ledger

import (
	"flag"

	"github.com/centbook/centbook/internal/platform/config"
)

// Config holds ledger command configuration.
type Config struct {
	DBPath       string `env:"CENTBOOK_DB_PATH" envDefault:"centbook.db"`
	SnapshotPath string `env:"CENTBOOK_SNAPSHOT_PATH"`
	MetricsAddr  string `env:"CENTBOOK_METRICS_ADDR"`
	UserID       string `env:"CENTBOOK_USER_ID" envDefault:"local"`
	Locale       string `env:"CENTBOOK_LOCALE" envDefault:"en-US"`
}

// ParseConfig parses environment and flags into a Config. Remaining args
// after the flags select the subcommand.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, []string, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, nil, err
	}
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the ledger SQLite database")
	fs.StringVar(&cfg.SnapshotPath, "snapshots", cfg.SnapshotPath, "Path to the aggregate snapshot cache (empty disables it)")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Listen address for the Prometheus endpoint (empty disables it)")
	fs.StringVar(&cfg.UserID, "user", cfg.UserID, "User ID commands run as")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "Locale for user-facing messages")
	if err := fs.Parse(args); err != nil {
		return Config{}, nil, err
	}
	return cfg, fs.Args(), nil
}
