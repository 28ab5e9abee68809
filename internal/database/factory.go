package database

import (
	"fmt"
	"path/filepath"

	"codesync-go/internal/codesync"
	"codesync-go/internal/config"
)

// FileName is the name of the database file inside the configured data dir.
const FileName = "codesyncdb.db"

// NewConnectionFromConfig creates a Connection based on the database config type.
func NewConnectionFromConfig(cfg config.DatabaseConfig, logger codesync.Logger) (*Connection, error) {
	switch cfg.Type {
	case "sqlite", "":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		return NewConnection(filepath.Join(cfg.DataDir, FileName), logger), nil
	case "memory":
		return NewConnection(MemoryPath, logger), nil
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
