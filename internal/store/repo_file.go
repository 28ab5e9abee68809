package store

import (
	"context"
	"fmt"

	"codesync-go/internal/codesync"
	"codesync-go/internal/database"
)

const repoFileColumns = `id, path, repo_branch_id, server_file_id`

// RepoFileTable stores files keyed by (path, repo_branch_id). The same path on
// two branches is two rows.
type RepoFileTable struct {
	table
}

// NewRepoFileTable creates a RepoFileTable on exec.
func NewRepoFileTable(exec *database.Executor) *RepoFileTable {
	return &RepoFileTable{table{
		name: RepoFileTableName,
		createSQL: `CREATE TABLE IF NOT EXISTS repo_file (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT NOT NULL,
			repo_branch_id INTEGER NOT NULL,
			server_file_id INTEGER,
			UNIQUE (path, repo_branch_id),
			FOREIGN KEY (repo_branch_id) REFERENCES repo_branch (id)
		)`,
		exec: exec,
	}}
}

// Get returns the file at path on branchID, or nil if there is none.
func (t *RepoFileTable) Get(ctx context.Context, path string, branchID int64) (*codesync.RepoFile, error) {
	return t.getOne(ctx, `SELECT `+repoFileColumns+` FROM repo_file WHERE path = ? AND repo_branch_id = ?`, path, branchID)
}

// GetByID returns the file with the given id, or nil if there is none.
func (t *RepoFileTable) GetByID(ctx context.Context, id int64) (*codesync.RepoFile, error) {
	return t.getOne(ctx, `SELECT `+repoFileColumns+` FROM repo_file WHERE id = ?`, id)
}

// Lookup finds a file by repo path, branch name and file path in one query.
func (t *RepoFileTable) Lookup(ctx context.Context, repoPath, branchName, filePath string) (*codesync.RepoFile, error) {
	return t.getOne(ctx, `
		SELECT rf.id, rf.path, rf.repo_branch_id, rf.server_file_id
		FROM repo_file rf
		INNER JOIN repo_branch rb ON rb.id = rf.repo_branch_id
		INNER JOIN repo r ON r.id = rb.repo_id
		WHERE r.path = ? AND rb.name = ? AND rf.path = ?`,
		repoPath, branchName, filePath)
}

func (t *RepoFileTable) getOne(ctx context.Context, query string, args ...any) (*codesync.RepoFile, error) {
	row, found, err := t.exec.QueryRow(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding repo file: %w", err)
	}
	if !found {
		return nil, nil // Not found
	}
	return fileFromRow(row)
}

// ListByBranch returns the files of branchID ordered by path.
func (t *RepoFileTable) ListByBranch(ctx context.Context, branchID int64) ([]*codesync.RepoFile, error) {
	rows, err := t.exec.Query(ctx, `SELECT `+repoFileColumns+` FROM repo_file WHERE repo_branch_id = ? ORDER BY path`, branchID)
	if err != nil {
		return nil, fmt.Errorf("listing repo files: %w", err)
	}
	result := make([]*codesync.RepoFile, 0, len(rows))
	for _, row := range rows {
		f, err := fileFromRow(row)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	return result, nil
}

// Insert adds a new file and sets f.ID. The branch must exist.
func (t *RepoFileTable) Insert(ctx context.Context, f *codesync.RepoFile) error {
	id, err := t.exec.Insert(ctx,
		`INSERT INTO repo_file (path, repo_branch_id, server_file_id) VALUES (?, ?, ?)`,
		f.Path, f.RepoBranchID, f.ServerFileID)
	if err != nil {
		return fmt.Errorf("inserting repo file %s: %w", f.Path, err)
	}
	f.ID = id
	return nil
}

// Update writes server_file_id, the only mutable column, of the row with f.ID.
func (t *RepoFileTable) Update(ctx context.Context, f *codesync.RepoFile) error {
	_, err := t.exec.Exec(ctx, `UPDATE repo_file SET server_file_id = ? WHERE id = ?`, f.ServerFileID, f.ID)
	if err != nil {
		return fmt.Errorf("updating repo file %d: %w", f.ID, err)
	}
	return nil
}

// Save inserts f, or updates the server id of the file stored at the same
// path on the same branch.
func (t *RepoFileTable) Save(ctx context.Context, f *codesync.RepoFile) error {
	existing, err := t.Get(ctx, f.Path, f.RepoBranchID)
	if err != nil {
		return err
	}
	if existing == nil {
		return t.Insert(ctx, f)
	}
	f.ID = existing.ID
	return t.Update(ctx, f)
}

// Delete removes the file with the given id. Deleting a missing row is not an error.
func (t *RepoFileTable) Delete(ctx context.Context, id int64) error {
	if _, err := t.exec.Exec(ctx, `DELETE FROM repo_file WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting repo file %d: %w", id, err)
	}
	return nil
}

func fileFromRow(row database.Row) (*codesync.RepoFile, error) {
	id, err := row.Int64("id")
	if err != nil {
		return nil, err
	}
	branchID, err := row.Int64("repo_branch_id")
	if err != nil {
		return nil, err
	}
	serverID, err := row.NullInt64("server_file_id")
	if err != nil {
		return nil, err
	}
	return &codesync.RepoFile{
		ID:           id,
		Path:         row.String("path"),
		RepoBranchID: branchID,
		ServerFileID: serverID,
	}, nil
}
