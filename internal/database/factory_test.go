package database

import (
	"path/filepath"
	"testing"

	"codesync-go/internal/config"
)

func TestNewConnectionFromConfig(t *testing.T) {
	t.Run("memory database", func(t *testing.T) {
		cfg := config.DatabaseConfig{Type: "memory"}
		got, err := NewConnectionFromConfig(cfg, nil)
		if err != nil {
			t.Fatalf("NewConnectionFromConfig() unexpected error: %v", err)
		}
		if got.Path() != MemoryPath {
			t.Errorf("Path() = %q, want %q", got.Path(), MemoryPath)
		}
	})

	t.Run("sqlite database", func(t *testing.T) {
		dir := t.TempDir()
		cfg := config.DatabaseConfig{Type: "sqlite", DataDir: dir}
		got, err := NewConnectionFromConfig(cfg, nil)
		if err != nil {
			t.Fatalf("NewConnectionFromConfig() unexpected error: %v", err)
		}
		want := filepath.Join(dir, FileName)
		if got.Path() != want {
			t.Errorf("Path() = %q, want %q", got.Path(), want)
		}
	})

	t.Run("sqlite database without data_dir", func(t *testing.T) {
		cfg := config.DatabaseConfig{Type: "sqlite"}
		got, err := NewConnectionFromConfig(cfg, nil)
		if err == nil {
			t.Error("NewConnectionFromConfig() expected error for missing data_dir, got nil")
		}
		if got != nil {
			t.Error("NewConnectionFromConfig() should return nil on error")
		}
	})

	t.Run("unknown database type", func(t *testing.T) {
		cfg := config.DatabaseConfig{Type: "postgres"}
		got, err := NewConnectionFromConfig(cfg, nil)
		if err == nil {
			t.Error("NewConnectionFromConfig() expected error for unknown type, got nil")
		}
		if got != nil {
			t.Error("NewConnectionFromConfig() should return nil on error")
		}
	})
}
