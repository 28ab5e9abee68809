package codesync

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
)

var (
	// ErrNotLoggedIn is returned when an operation needs an active user and there is none.
	ErrNotLoggedIn = errors.New("no active user")
	// ErrRepoNotFound is returned when a repo path is not connected.
	ErrRepoNotFound = errors.New("repo not found")
	// ErrBranchNotFound is returned when a branch is not known for a repo.
	ErrBranchNotFound = errors.New("branch not found")
)

// Service is the runtime API over the local store: who is logged in, which
// repos are connected, and which files on which branch have server ids.
type Service struct {
	users    UserStore
	repos    RepoStore
	branches BranchStore
	files    FileStore
	logger   Logger
}

// NewService creates a Service. A nil logger discards output.
func NewService(users UserStore, repos RepoStore, branches BranchStore, files FileStore, logger Logger) *Service {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Service{users: users, repos: repos, branches: branches, files: files, logger: logger}
}

// Login stores the credentials for email and makes it the only active user.
// Keys left nil keep no value.
func (s *Service) Login(ctx context.Context, email, accessToken string, accessKey, secretKey *string) (*User, error) {
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	u := &User{
		Email:       email,
		AccessToken: accessToken,
		AccessKey:   accessKey,
		SecretKey:   secretKey,
		IsActive:    true,
	}
	if err := s.users.Save(ctx, u); err != nil {
		return nil, fmt.Errorf("saving user: %w", err)
	}
	if err := s.users.MarkOthersInactive(ctx, u.ID); err != nil {
		return nil, err
	}
	s.logger.Info("user logged in", "email", email)
	return u, nil
}

// Logout clears the active flag on every user.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.users.MarkAllInactive(ctx); err != nil {
		return err
	}
	s.logger.Info("user logged out")
	return nil
}

// ActiveUser returns the logged-in user, or nil.
func (s *Service) ActiveUser(ctx context.Context) (*User, error) {
	return s.users.GetActive(ctx)
}

// ConnectRepo records the repo at path as synced and owned by the active
// user, and creates branch under it. Connecting an already known repo keeps
// its name and server id.
func (s *Service) ConnectRepo(ctx context.Context, path string, serverRepoID *int64, branch string) (*Repo, error) {
	if !filepath.IsAbs(path) {
		return nil, fmt.Errorf("repo path must be absolute: %s", path)
	}
	if branch == "" {
		return nil, fmt.Errorf("branch is required")
	}

	user, err := s.users.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("finding active user: %w", err)
	}
	if user == nil {
		return nil, ErrNotLoggedIn
	}

	repo := &Repo{
		ServerRepoID: serverRepoID,
		Name:         filepath.Base(path),
		Path:         filepath.Clean(path),
		UserID:       user.ID,
		State:        RepoStateSynced,
	}
	if err := s.repos.Save(ctx, repo); err != nil {
		return nil, fmt.Errorf("saving repo: %w", err)
	}
	if err := s.branches.Save(ctx, &RepoBranch{Name: branch, RepoID: repo.ID}); err != nil {
		return nil, fmt.Errorf("saving branch: %w", err)
	}

	s.logger.Info("repo connected", "path", repo.Path, "branch", branch, "email", user.Email)
	return repo, nil
}

// DisconnectRepo marks the repo at path as disconnected. Its branches and
// files are kept.
func (s *Service) DisconnectRepo(ctx context.Context, path string) (*Repo, error) {
	return s.setRepoState(ctx, path, RepoStateDisconnected)
}

// DeleteRepo marks the repo at path as deleted. Rows are never removed.
func (s *Service) DeleteRepo(ctx context.Context, path string) (*Repo, error) {
	return s.setRepoState(ctx, path, RepoStateDeleted)
}

func (s *Service) setRepoState(ctx context.Context, path string, state RepoState) (*Repo, error) {
	repo, err := s.Repo(ctx, path)
	if err != nil {
		return nil, err
	}
	if repo.State == state {
		return repo, nil
	}
	repo.State = state
	if err := s.repos.Save(ctx, repo); err != nil {
		return nil, fmt.Errorf("saving repo: %w", err)
	}
	s.logger.Info("repo state changed", "path", repo.Path, "state", string(state))
	return repo, nil
}

// Repo returns the repo at path, or ErrRepoNotFound.
func (s *Service) Repo(ctx context.Context, path string) (*Repo, error) {
	repo, err := s.repos.Get(ctx, filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("finding repo: %w", err)
	}
	if repo == nil {
		return nil, fmt.Errorf("%w: %s", ErrRepoNotFound, path)
	}
	return repo, nil
}

// Repos returns every known repo ordered by path.
func (s *Service) Repos(ctx context.Context) ([]*Repo, error) {
	return s.repos.List(ctx)
}

// ReposForActiveUser returns the repos owned by the logged-in user.
func (s *Service) ReposForActiveUser(ctx context.Context) ([]*Repo, error) {
	user, err := s.users.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("finding active user: %w", err)
	}
	if user == nil {
		return nil, ErrNotLoggedIn
	}
	return s.repos.ListByUser(ctx, user.ID)
}

// Branches returns the branches of the repo at path ordered by name.
func (s *Service) Branches(ctx context.Context, repoPath string) ([]*RepoBranch, error) {
	repo, err := s.Repo(ctx, repoPath)
	if err != nil {
		return nil, err
	}
	return s.branches.ListByRepo(ctx, repo.ID)
}

// TrackFile records filePath on branch of the repo at repoPath, creating the
// branch if needed. A nil serverFileID marks a file the backend has not seen
// yet; tracking it again with an id fills it in.
func (s *Service) TrackFile(ctx context.Context, repoPath, branch, filePath string, serverFileID *int64) (*RepoFile, error) {
	repo, err := s.Repo(ctx, repoPath)
	if err != nil {
		return nil, err
	}
	if repo.IsDeleted() {
		return nil, fmt.Errorf("repo is deleted: %s", repo.Path)
	}

	b := &RepoBranch{Name: branch, RepoID: repo.ID}
	if err := s.branches.Save(ctx, b); err != nil {
		return nil, fmt.Errorf("saving branch: %w", err)
	}

	f := &RepoFile{Path: filepath.ToSlash(filePath), RepoBranchID: b.ID, ServerFileID: serverFileID}
	if err := s.files.Save(ctx, f); err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}
	s.logger.Debug("file tracked", "repo", repo.Path, "branch", branch, "path", f.Path)
	return f, nil
}

// UntrackFile removes filePath from branch. Untracking an unknown file is a no-op.
func (s *Service) UntrackFile(ctx context.Context, repoPath, branch, filePath string) error {
	f, err := s.File(ctx, repoPath, branch, filePath)
	if err != nil {
		return err
	}
	if f == nil {
		return nil
	}
	if err := s.files.Delete(ctx, f.ID); err != nil {
		return err
	}
	s.logger.Debug("file untracked", "repo", repoPath, "branch", branch, "path", f.Path)
	return nil
}

// File returns the tracked file, or nil.
func (s *Service) File(ctx context.Context, repoPath, branch, filePath string) (*RepoFile, error) {
	f, err := s.files.Lookup(ctx, filepath.Clean(repoPath), branch, filepath.ToSlash(filePath))
	if err != nil {
		return nil, fmt.Errorf("finding file: %w", err)
	}
	return f, nil
}

// Files returns the files tracked on branch ordered by path.
func (s *Service) Files(ctx context.Context, repoPath, branch string) ([]*RepoFile, error) {
	repo, err := s.Repo(ctx, repoPath)
	if err != nil {
		return nil, err
	}
	b, err := s.branches.Get(ctx, branch, repo.ID)
	if err != nil {
		return nil, fmt.Errorf("finding branch: %w", err)
	}
	if b == nil {
		return nil, fmt.Errorf("%w: %s on %s", ErrBranchNotFound, branch, repo.Path)
	}
	return s.files.ListByBranch(ctx, b.ID)
}
