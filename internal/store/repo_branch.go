package store

import (
	"context"
	"fmt"

	"codesync-go/internal/codesync"
	"codesync-go/internal/database"
)

// RepoBranchTable stores branches keyed by (name, repo_id).
type RepoBranchTable struct {
	table
}

// NewRepoBranchTable creates a RepoBranchTable on exec.
func NewRepoBranchTable(exec *database.Executor) *RepoBranchTable {
	return &RepoBranchTable{table{
		name: RepoBranchTableName,
		createSQL: `CREATE TABLE IF NOT EXISTS repo_branch (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			repo_id INTEGER NOT NULL,
			UNIQUE (name, repo_id),
			FOREIGN KEY (repo_id) REFERENCES repo (id)
		)`,
		exec: exec,
	}}
}

// Get returns the branch called name in repoID, or nil if there is none.
func (t *RepoBranchTable) Get(ctx context.Context, name string, repoID int64) (*codesync.RepoBranch, error) {
	return t.getOne(ctx, `SELECT id, name, repo_id FROM repo_branch WHERE name = ? AND repo_id = ?`, name, repoID)
}

// GetByID returns the branch with the given id, or nil if there is none.
func (t *RepoBranchTable) GetByID(ctx context.Context, id int64) (*codesync.RepoBranch, error) {
	return t.getOne(ctx, `SELECT id, name, repo_id FROM repo_branch WHERE id = ?`, id)
}

func (t *RepoBranchTable) getOne(ctx context.Context, query string, args ...any) (*codesync.RepoBranch, error) {
	row, found, err := t.exec.QueryRow(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding repo branch: %w", err)
	}
	if !found {
		return nil, nil // Not found
	}
	return branchFromRow(row)
}

// ListByRepo returns the branches of repoID ordered by name.
func (t *RepoBranchTable) ListByRepo(ctx context.Context, repoID int64) ([]*codesync.RepoBranch, error) {
	rows, err := t.exec.Query(ctx, `SELECT id, name, repo_id FROM repo_branch WHERE repo_id = ? ORDER BY name`, repoID)
	if err != nil {
		return nil, fmt.Errorf("listing repo branches: %w", err)
	}
	result := make([]*codesync.RepoBranch, 0, len(rows))
	for _, row := range rows {
		b, err := branchFromRow(row)
		if err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, nil
}

// Insert adds a new branch and sets b.ID. The repo must exist.
func (t *RepoBranchTable) Insert(ctx context.Context, b *codesync.RepoBranch) error {
	id, err := t.exec.Insert(ctx, `INSERT INTO repo_branch (name, repo_id) VALUES (?, ?)`, b.Name, b.RepoID)
	if err != nil {
		return fmt.Errorf("inserting repo branch %s: %w", b.Name, err)
	}
	b.ID = id
	return nil
}

// Update is a no-op: every column of a branch is part of its natural key.
func (t *RepoBranchTable) Update(ctx context.Context, b *codesync.RepoBranch) error {
	return nil
}

// Save inserts b unless a branch with the same name already exists in the
// repo, in which case b takes the stored id.
func (t *RepoBranchTable) Save(ctx context.Context, b *codesync.RepoBranch) error {
	existing, err := t.Get(ctx, b.Name, b.RepoID)
	if err != nil {
		return err
	}
	if existing == nil {
		return t.Insert(ctx, b)
	}
	b.ID = existing.ID
	return t.Update(ctx, b)
}

func branchFromRow(row database.Row) (*codesync.RepoBranch, error) {
	id, err := row.Int64("id")
	if err != nil {
		return nil, err
	}
	repoID, err := row.Int64("repo_id")
	if err != nil {
		return nil, err
	}
	return &codesync.RepoBranch{ID: id, Name: row.String("name"), RepoID: repoID}, nil
}
