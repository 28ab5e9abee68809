package codesync

import "context"

// UserStore persists users. Lookups return nil, nil when nothing matches.
type UserStore interface {
	Get(ctx context.Context, email string) (*User, error)
	GetActive(ctx context.Context) (*User, error)
	Save(ctx context.Context, u *User) error
	MarkOthersInactive(ctx context.Context, id int64) error
	MarkAllInactive(ctx context.Context) error
}

// RepoStore persists repos keyed by absolute path.
type RepoStore interface {
	Get(ctx context.Context, path string) (*Repo, error)
	List(ctx context.Context) ([]*Repo, error)
	ListByUser(ctx context.Context, userID int64) ([]*Repo, error)
	Save(ctx context.Context, r *Repo) error
}

// BranchStore persists branches keyed by (name, repo id).
type BranchStore interface {
	Get(ctx context.Context, name string, repoID int64) (*RepoBranch, error)
	ListByRepo(ctx context.Context, repoID int64) ([]*RepoBranch, error)
	Save(ctx context.Context, b *RepoBranch) error
}

// FileStore persists files keyed by (path, branch id).
type FileStore interface {
	Lookup(ctx context.Context, repoPath, branchName, filePath string) (*RepoFile, error)
	ListByBranch(ctx context.Context, branchID int64) ([]*RepoFile, error)
	Save(ctx context.Context, f *RepoFile) error
	Delete(ctx context.Context, id int64) error
}
