package config

import (
	"flag"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Server holds cmd/server configuration. Environment variables set the
// defaults and flags override them.
type Server struct {
	Addr          string        `env:"GIGCRAFT_ADDR"           envDefault:":8080"`
	ConfigDir     string        `env:"GIGCRAFT_CONFIGS"        envDefault:"./configs"`
	TuningPath    string        `env:"GIGCRAFT_TUNING"`
	DataDir       string        `env:"GIGCRAFT_DATA_DIR"       envDefault:"./data"`
	DisableDB     bool          `env:"GIGCRAFT_DISABLE_DB"`
	SnapshotEvery int           `env:"GIGCRAFT_SNAPSHOT_EVERY" envDefault:"13"`
	ReadTimeout   time.Duration `env:"GIGCRAFT_READ_TIMEOUT"   envDefault:"10m"`
}

// Tools holds the shared configuration of the offline tools (replay,
// scenario).
type Tools struct {
	ConfigDir  string `env:"GIGCRAFT_CONFIGS"  envDefault:"./configs"`
	TuningPath string `env:"GIGCRAFT_TUNING"`
	DataDir    string `env:"GIGCRAFT_DATA_DIR" envDefault:"./data"`
	Verbose    bool   `env:"GIGCRAFT_VERBOSE"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func ParseServer(fs *flag.FlagSet, args []string) (Server, error) {
	var cfg Server
	if err := ParseEnv(&cfg); err != nil {
		return Server{}, err
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "http listen address")
	fs.StringVar(&cfg.ConfigDir, "configs", cfg.ConfigDir, "config directory")
	fs.StringVar(&cfg.TuningPath, "tuning", cfg.TuningPath, "path to tuning.yaml (default: <configs>/tuning.yaml)")
	fs.StringVar(&cfg.DataDir, "data", cfg.DataDir, "runtime data directory")
	fs.BoolVar(&cfg.DisableDB, "disable_db", cfg.DisableDB, "disable the sqlite run index")
	fs.IntVar(&cfg.SnapshotEvery, "snapshot_every", cfg.SnapshotEvery, "save each run every N weeks")
	fs.DurationVar(&cfg.ReadTimeout, "read_timeout", cfg.ReadTimeout, "drop idle websocket clients after this long")
	if err := fs.Parse(args); err != nil {
		return Server{}, err
	}
	if cfg.SnapshotEvery <= 0 {
		return Server{}, fmt.Errorf("snapshot_every must be positive")
	}
	cfg.TuningPath = TuningPath(cfg.ConfigDir, cfg.TuningPath)
	return cfg, nil
}

func ParseTools(fs *flag.FlagSet, args []string) (Tools, error) {
	var cfg Tools
	if err := ParseEnv(&cfg); err != nil {
		return Tools{}, err
	}
	fs.StringVar(&cfg.ConfigDir, "configs", cfg.ConfigDir, "config directory")
	fs.StringVar(&cfg.TuningPath, "tuning", cfg.TuningPath, "path to tuning.yaml (default: <configs>/tuning.yaml)")
	fs.StringVar(&cfg.DataDir, "data", cfg.DataDir, "runtime data directory")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "log every command")
	if err := fs.Parse(args); err != nil {
		return Tools{}, err
	}
	cfg.TuningPath = TuningPath(cfg.ConfigDir, cfg.TuningPath)
	return cfg, nil
}

// TuningPath defaults to <configDir>/tuning.yaml.
func TuningPath(configDir, path string) string {
	if p := strings.TrimSpace(path); p != "" {
		return p
	}
	return filepath.Join(configDir, "tuning.yaml")
}
