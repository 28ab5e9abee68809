package store

import (
	"context"
	"path/filepath"
	"testing"

	"codesync-go/internal/codesync"
	"codesync-go/internal/database"
)

// newTestTables creates every table in a fresh file-backed database.
func newTestTables(t *testing.T) *Tables {
	t.Helper()

	conn := database.NewConnection(filepath.Join(t.TempDir(), "test.db"), nil)
	t.Cleanup(func() {
		conn.Disconnect()
	})

	tables := NewTables(database.NewExecutor(conn))
	if err := tables.CreateAll(context.Background()); err != nil {
		t.Fatalf("failed to create tables: %v", err)
	}
	return tables
}

func createTestUser(t *testing.T, tables *Tables, email string) *codesync.User {
	t.Helper()

	u := &codesync.User{Email: email, AccessToken: "token", IsActive: true}
	if err := tables.Users.Save(context.Background(), u); err != nil {
		t.Fatalf("Save(user %s) error = %v", email, err)
	}
	return u
}

func createTestRepo(t *testing.T, tables *Tables, path string) *codesync.Repo {
	t.Helper()

	u := createTestUser(t, tables, "owner@example.com")
	r := &codesync.Repo{Name: filepath.Base(path), Path: path, UserID: u.ID, State: codesync.RepoStateSynced}
	if err := tables.Repos.Save(context.Background(), r); err != nil {
		t.Fatalf("Save(repo %s) error = %v", path, err)
	}
	return r
}

func createTestBranch(t *testing.T, tables *Tables, repoID int64, name string) *codesync.RepoBranch {
	t.Helper()

	b := &codesync.RepoBranch{Name: name, RepoID: repoID}
	if err := tables.Branches.Save(context.Background(), b); err != nil {
		t.Fatalf("Save(branch %s) error = %v", name, err)
	}
	return b
}

func int64Ptr(n int64) *int64 { return &n }

func strPtr(s string) *string { return &s }
