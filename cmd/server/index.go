package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gigcraft.ai/internal/config"
	"gigcraft.ai/internal/persistence/indexdb"
)

// openIndex returns nil when indexing is off. Runs work without it.
func openIndex(cfg config.Server, logger *log.Logger) (*indexdb.SQLiteIndex, error) {
	if cfg.DisableDB {
		return nil, nil
	}
	backend := strings.ToLower(strings.TrimSpace(os.Getenv("GIGCRAFT_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}
	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		dbPath := filepath.Join(cfg.DataDir, "index", "runs.sqlite")
		idx, err := indexdb.OpenSQLite(dbPath)
		if err != nil {
			return nil, err
		}
		logger.Printf("index: %s", dbPath)
		return idx, nil
	default:
		return nil, fmt.Errorf("unsupported GIGCRAFT_INDEX_BACKEND: %s", backend)
	}
}
