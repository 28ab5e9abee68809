package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"codesync-go/internal/database"
	"codesync-go/internal/store"
)

// NewTestTables creates every table in a fresh file-backed database under
// t.TempDir(). The connection is closed when the test completes.
func NewTestTables(t *testing.T) *store.Tables {
	t.Helper()

	conn := database.NewConnection(filepath.Join(t.TempDir(), "codesync.db"), nil)
	t.Cleanup(func() {
		conn.Disconnect()
	})

	tables := store.NewTables(database.NewExecutor(conn))
	if err := tables.CreateAll(context.Background()); err != nil {
		t.Fatalf("failed to create tables: %v", err)
	}
	return tables
}
