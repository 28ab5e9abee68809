package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		ClientID: "0b7e2f4a-client",
		BaseDir:  "/home/user/.codesync",
		LogDir:   "/home/user/.codesync/log",
		Database: DatabaseConfig{Type: "sqlite", DataDir: "/home/user/.codesync/db"},
		Legacy: LegacyConfig{
			ConfigPath: "/home/user/.codesync/config.yml",
			UserPath:   "/home/user/.codesync/user.yml",
		},
		Log: LogConfig{MaxSizeMB: 5, MaxBackups: 7},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if *got != *original {
		t.Errorf("Read() = %+v, want %+v", *got, *original)
	}
}

func TestManager_Read_Partial(t *testing.T) {
	input := `
client_id = "abc"

[database]
type = "memory"
`
	got, err := (&Manager{}).Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.Database.Type != "memory" {
		t.Errorf("Database.Type = %q, want %q", got.Database.Type, "memory")
	}
	if got.Legacy.ConfigPath != "" {
		t.Errorf("Legacy.ConfigPath = %q, want empty", got.Legacy.ConfigPath)
	}
}

func TestManager_Read_Invalid(t *testing.T) {
	_, err := (&Manager{}).Read(strings.NewReader("client_id = \n"))
	if err == nil {
		t.Fatal("Read() expected error for invalid TOML")
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("client-1", "/data/codesync")

	if cfg.ClientID != "client-1" {
		t.Errorf("ClientID = %q, want %q", cfg.ClientID, "client-1")
	}
	if cfg.BaseDir != "/data/codesync" {
		t.Errorf("BaseDir = %q, want %q", cfg.BaseDir, "/data/codesync")
	}
	if cfg.LogDir != "/data/codesync/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/codesync/log")
	}
	if cfg.Database.Type != "sqlite" || cfg.Database.DataDir != "/data/codesync/db" {
		t.Errorf("Database = %+v, want sqlite in /data/codesync/db", cfg.Database)
	}
	if cfg.Legacy.ConfigPath != "/data/codesync/config.yml" {
		t.Errorf("Legacy.ConfigPath = %q, want %q", cfg.Legacy.ConfigPath, "/data/codesync/config.yml")
	}
	if cfg.Legacy.UserPath != "/data/codesync/user.yml" {
		t.Errorf("Legacy.UserPath = %q, want %q", cfg.Legacy.UserPath, "/data/codesync/user.yml")
	}
	if cfg.Log.MaxSizeMB != 10 || cfg.Log.MaxBackups != 3 {
		t.Errorf("Log = %+v, want 10MB x 3", cfg.Log)
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "nested", "codesync.toml")
		cfg := NewConfig("c1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "codesync.toml")
		cfg := NewConfig("c1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		err := Init(path, cfg)
		if err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "codesync.toml")
		cfg := NewConfig("read-test", dir)
		cfg.Database = DatabaseConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.ClientID != "read-test" {
			t.Errorf("ClientID = %q, want %q", got.ClientID, "read-test")
		}
		if got.Database.Type != "memory" {
			t.Errorf("Database.Type = %q, want %q", got.Database.Type, "memory")
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		_, err := ReadFromFile("/nonexistent/path/codesync.toml")
		if err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
