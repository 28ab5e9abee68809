package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// The legacy YAML files are expected directly under the base directory.
// Environment variables:
//   - CODESYNC_CONFIG_PATH: config file location (default: ~/.config/codesync.toml)
//   - CODESYNC_HOME: base directory for codesync data (default: ~/.codesync)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path":        configPath,
		"base_dir":           baseDir,
		"log_dir":            filepath.Join(baseDir, "log"),
		"data_dir":           filepath.Join(baseDir, "db"),
		"legacy_config_path": filepath.Join(baseDir, "config.yml"),
		"legacy_user_path":   filepath.Join(baseDir, "user.yml"),
	}, nil
}

// getConfigPath returns the config file path, checking CODESYNC_CONFIG_PATH env var first,
// then falling back to the default ~/.config/codesync.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("CODESYNC_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "codesync.toml"), nil
}

// getBaseDir returns the base directory for codesync data, checking CODESYNC_HOME env var first,
// then falling back to ~/.codesync, where older clients kept their files.
func getBaseDir() (string, error) {
	if path := os.Getenv("CODESYNC_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".codesync"), nil
}
