package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"codesync-go/internal/legacy"
)

// WriteLegacyFiles writes config.yml and user.yml into dir and returns their
// locations. An empty document is not written, so the file is missing.
func WriteLegacyFiles(t *testing.T, dir, configDoc, userDoc string) legacy.Files {
	t.Helper()

	files := legacy.Files{
		ConfigPath: filepath.Join(dir, "config.yml"),
		UserPath:   filepath.Join(dir, "user.yml"),
	}
	for path, doc := range map[string]string{files.ConfigPath: configDoc, files.UserPath: userDoc} {
		if doc == "" {
			continue
		}
		if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}
	return files
}
