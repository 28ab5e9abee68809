package store

import (
	"context"
	"fmt"

	"codesync-go/internal/codesync"
	"codesync-go/internal/database"
)

const repoColumns = `id, server_repo_id, name, path, user_id, state`

// RepoTable stores repos keyed by absolute path.
type RepoTable struct {
	table
}

// NewRepoTable creates a RepoTable on exec.
func NewRepoTable(exec *database.Executor) *RepoTable {
	return &RepoTable{table{
		name: RepoTableName,
		createSQL: `CREATE TABLE IF NOT EXISTS repo (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			server_repo_id INTEGER,
			name TEXT NOT NULL,
			path TEXT NOT NULL UNIQUE,
			user_id INTEGER NOT NULL,
			state TEXT NOT NULL,
			FOREIGN KEY (user_id) REFERENCES "user" (id)
		)`,
		exec: exec,
	}}
}

// Get returns the repo at path, or nil if there is none.
func (t *RepoTable) Get(ctx context.Context, path string) (*codesync.Repo, error) {
	return t.getOne(ctx, `SELECT `+repoColumns+` FROM repo WHERE path = ?`, path)
}

// GetByID returns the repo with the given id, or nil if there is none.
func (t *RepoTable) GetByID(ctx context.Context, id int64) (*codesync.Repo, error) {
	return t.getOne(ctx, `SELECT `+repoColumns+` FROM repo WHERE id = ?`, id)
}

func (t *RepoTable) getOne(ctx context.Context, query string, args ...any) (*codesync.Repo, error) {
	row, found, err := t.exec.QueryRow(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding repo: %w", err)
	}
	if !found {
		return nil, nil // Not found
	}
	return repoFromRow(row)
}

// List returns every repo ordered by path.
func (t *RepoTable) List(ctx context.Context) ([]*codesync.Repo, error) {
	return t.list(ctx, `SELECT `+repoColumns+` FROM repo ORDER BY path`)
}

// ListByUser returns the repos owned by userID ordered by path.
func (t *RepoTable) ListByUser(ctx context.Context, userID int64) ([]*codesync.Repo, error) {
	return t.list(ctx, `SELECT `+repoColumns+` FROM repo WHERE user_id = ? ORDER BY path`, userID)
}

func (t *RepoTable) list(ctx context.Context, query string, args ...any) ([]*codesync.Repo, error) {
	rows, err := t.exec.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing repos: %w", err)
	}
	result := make([]*codesync.Repo, 0, len(rows))
	for _, row := range rows {
		r, err := repoFromRow(row)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, nil
}

// Insert adds a new repo and sets r.ID.
func (t *RepoTable) Insert(ctx context.Context, r *codesync.Repo) error {
	id, err := t.exec.Insert(ctx,
		`INSERT INTO repo (server_repo_id, name, path, user_id, state) VALUES (?, ?, ?, ?, ?)`,
		r.ServerRepoID, r.Name, r.Path, r.UserID, r.State)
	if err != nil {
		return fmt.Errorf("inserting repo %s: %w", r.Path, err)
	}
	r.ID = id
	return nil
}

// Update writes the mutable columns (state, user_id) of the row with r.ID.
// server_repo_id is only filled in while it is still NULL.
func (t *RepoTable) Update(ctx context.Context, r *codesync.Repo) error {
	_, err := t.exec.Exec(ctx,
		`UPDATE repo SET user_id = ?, state = ?, server_repo_id = COALESCE(server_repo_id, ?) WHERE id = ?`,
		r.UserID, r.State, r.ServerRepoID, r.ID)
	if err != nil {
		return fmt.Errorf("updating repo %d: %w", r.ID, err)
	}
	return nil
}

// Save inserts r, or updates state and owner of the repo stored at r.Path.
// For an existing repo the stored name and server id win and are copied onto r.
func (t *RepoTable) Save(ctx context.Context, r *codesync.Repo) error {
	existing, err := t.Get(ctx, r.Path)
	if err != nil {
		return err
	}
	if existing == nil {
		return t.Insert(ctx, r)
	}
	r.ID = existing.ID
	r.Name = existing.Name
	if existing.ServerRepoID != nil {
		r.ServerRepoID = existing.ServerRepoID
	}
	return t.Update(ctx, r)
}

func repoFromRow(row database.Row) (*codesync.Repo, error) {
	id, err := row.Int64("id")
	if err != nil {
		return nil, err
	}
	serverID, err := row.NullInt64("server_repo_id")
	if err != nil {
		return nil, err
	}
	userID, err := row.Int64("user_id")
	if err != nil {
		return nil, err
	}
	state, err := codesync.ParseRepoState(row.String("state"))
	if err != nil {
		return nil, fmt.Errorf("repo %d: %w", id, err)
	}
	return &codesync.Repo{
		ID:           id,
		ServerRepoID: serverID,
		Name:         row.String("name"),
		Path:         row.String("path"),
		UserID:       userID,
		State:        state,
	}, nil
}
