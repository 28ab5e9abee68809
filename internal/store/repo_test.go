package store

import (
	"context"
	"errors"
	"testing"

	"codesync-go/internal/codesync"
	"codesync-go/internal/database"
)

func TestRepoTable_Save(t *testing.T) {
	t.Run("inserts a new repo", func(t *testing.T) {
		tables := newTestTables(t)
		ctx := context.Background()
		u := createTestUser(t, tables, "a@x.com")

		r := &codesync.Repo{ServerRepoID: int64Ptr(42), Name: "r1", Path: "/r1", UserID: u.ID, State: codesync.RepoStateSynced}
		if err := tables.Repos.Save(ctx, r); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if r.ID == 0 {
			t.Fatal("Save() did not set ID")
		}

		got, err := tables.Repos.Get(ctx, "/r1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got == nil {
			t.Fatal("Get() returned nil")
		}
		if got.ServerRepoID == nil || *got.ServerRepoID != 42 {
			t.Errorf("ServerRepoID = %v, want 42", got.ServerRepoID)
		}
		if got.State != codesync.RepoStateSynced {
			t.Errorf("State = %q, want %q", got.State, codesync.RepoStateSynced)
		}
	})

	t.Run("keeps name and server id of an existing repo", func(t *testing.T) {
		tables := newTestTables(t)
		ctx := context.Background()
		owner := createTestUser(t, tables, "a@x.com")
		newOwner := createTestUser(t, tables, "b@x.com")

		orig := &codesync.Repo{ServerRepoID: int64Ptr(1), Name: "original", Path: "/r1", UserID: owner.ID, State: codesync.RepoStateSynced}
		if err := tables.Repos.Save(ctx, orig); err != nil {
			t.Fatalf("first Save() error = %v", err)
		}

		changed := &codesync.Repo{ServerRepoID: int64Ptr(99), Name: "renamed", Path: "/r1", UserID: newOwner.ID, State: codesync.RepoStateDisconnected}
		if err := tables.Repos.Save(ctx, changed); err != nil {
			t.Fatalf("second Save() error = %v", err)
		}

		if changed.ID != orig.ID {
			t.Errorf("ID = %d, want %d", changed.ID, orig.ID)
		}
		if changed.Name != "original" {
			t.Errorf("in-memory Name = %q, want stored %q", changed.Name, "original")
		}

		got, err := tables.Repos.Get(ctx, "/r1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Name != "original" {
			t.Errorf("Name = %q, want %q", got.Name, "original")
		}
		if *got.ServerRepoID != 1 {
			t.Errorf("ServerRepoID = %d, want 1", *got.ServerRepoID)
		}
		if got.State != codesync.RepoStateDisconnected {
			t.Errorf("State = %q, want %q", got.State, codesync.RepoStateDisconnected)
		}
		if got.UserID != newOwner.ID {
			t.Errorf("UserID = %d, want %d", got.UserID, newOwner.ID)
		}
	})

	t.Run("fills a missing server id once", func(t *testing.T) {
		tables := newTestTables(t)
		ctx := context.Background()
		u := createTestUser(t, tables, "a@x.com")

		if err := tables.Repos.Save(ctx, &codesync.Repo{Name: "r", Path: "/r", UserID: u.ID, State: codesync.RepoStateNotSynced}); err != nil {
			t.Fatalf("first Save() error = %v", err)
		}
		if err := tables.Repos.Save(ctx, &codesync.Repo{ServerRepoID: int64Ptr(7), Name: "r", Path: "/r", UserID: u.ID, State: codesync.RepoStateSynced}); err != nil {
			t.Fatalf("second Save() error = %v", err)
		}
		if err := tables.Repos.Save(ctx, &codesync.Repo{ServerRepoID: int64Ptr(8), Name: "r", Path: "/r", UserID: u.ID, State: codesync.RepoStateSynced}); err != nil {
			t.Fatalf("third Save() error = %v", err)
		}

		got, _ := tables.Repos.Get(ctx, "/r")
		if got.ServerRepoID == nil || *got.ServerRepoID != 7 {
			t.Errorf("ServerRepoID = %v, want 7", got.ServerRepoID)
		}
	})

	t.Run("rejects an unknown owner", func(t *testing.T) {
		tables := newTestTables(t)

		err := tables.Repos.Save(context.Background(), &codesync.Repo{Name: "r", Path: "/r", UserID: 12345, State: codesync.RepoStateSynced})
		if !errors.Is(err, database.ErrConstraintViolation) {
			t.Errorf("Save() error = %v, want ErrConstraintViolation", err)
		}
	})
}

func TestRepoTable_List(t *testing.T) {
	tables := newTestTables(t)
	ctx := context.Background()
	a := createTestUser(t, tables, "a@x.com")
	b := createTestUser(t, tables, "b@x.com")

	for _, r := range []*codesync.Repo{
		{Name: "z", Path: "/z", UserID: a.ID, State: codesync.RepoStateSynced},
		{Name: "m", Path: "/m", UserID: b.ID, State: codesync.RepoStateSynced},
		{Name: "a", Path: "/a", UserID: a.ID, State: codesync.RepoStateDeleted},
	} {
		if err := tables.Repos.Save(ctx, r); err != nil {
			t.Fatalf("Save(%s) error = %v", r.Path, err)
		}
	}

	all, err := tables.Repos.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 || all[0].Path != "/a" || all[2].Path != "/z" {
		t.Errorf("List() paths not ordered: %v", repoPaths(all))
	}

	owned, err := tables.Repos.ListByUser(ctx, a.ID)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(owned) != 2 {
		t.Errorf("ListByUser() = %v, want 2 repos", repoPaths(owned))
	}
	if !owned[0].IsDeleted() {
		t.Errorf("repo %s IsDeleted() = false", owned[0].Path)
	}
}

func repoPaths(repos []*codesync.Repo) []string {
	paths := make([]string, len(repos))
	for i, r := range repos {
		paths[i] = r.Path
	}
	return paths
}
