package migration

import (
	"context"
	"fmt"

	"codesync-go/internal/codesync"
	"codesync-go/internal/legacy"
)

func (m *Manager) importUsers(ctx context.Context, r *run) (int, int, error) {
	entries, err := r.userEntries()
	if err != nil {
		return 0, 0, fmt.Errorf("loading legacy users: %w", err)
	}
	plan := legacy.BuildPlan(nil, entries)

	saved := 0
	for _, rec := range plan.Users {
		u := &codesync.User{
			Email:       rec.Email,
			AccessToken: rec.AccessToken,
			AccessKey:   rec.AccessKey,
			SecretKey:   rec.SecretKey,
			IsActive:    rec.IsActive,
		}
		if err := m.tables.Users.Save(ctx, u); err != nil {
			return saved, 0, err
		}
		saved++
	}
	return saved, 0, nil
}

func (m *Manager) importRepos(ctx context.Context, r *run) (int, int, error) {
	plan, err := r.plan()
	if err != nil {
		return 0, 0, err
	}

	saved, dropped := 0, 0
	for _, rec := range plan.Repos {
		if rec.OwnerEmail == "" {
			m.logger.Warn("legacy repo has no owner, skipping", "path", rec.Path)
			dropped++
			continue
		}
		owner, err := m.tables.Users.Get(ctx, rec.OwnerEmail)
		if err != nil {
			return saved, dropped, err
		}
		if owner == nil {
			m.logger.Warn("legacy repo owner is unknown, skipping", "path", rec.Path, "email", rec.OwnerEmail)
			dropped++
			continue
		}

		repo := &codesync.Repo{
			ServerRepoID: rec.ServerRepoID,
			Name:         rec.Name,
			Path:         rec.Path,
			UserID:       owner.ID,
			State:        rec.State,
		}
		if err := m.tables.Repos.Save(ctx, repo); err != nil {
			return saved, dropped, err
		}
		saved++
	}
	return saved, dropped, nil
}

func (m *Manager) importBranches(ctx context.Context, r *run) (int, int, error) {
	plan, err := r.plan()
	if err != nil {
		return 0, 0, err
	}

	repos := newRepoResolver(m)
	saved, dropped := 0, 0
	for _, rec := range plan.Branches {
		repo, err := repos.get(ctx, rec.RepoPath)
		if err != nil {
			return saved, dropped, err
		}
		if repo == nil {
			m.logger.Warn("legacy branch has no imported repo, skipping", "repo", rec.RepoPath, "branch", rec.Name)
			dropped++
			continue
		}

		b := &codesync.RepoBranch{Name: rec.Name, RepoID: repo.ID}
		if err := m.tables.Branches.Save(ctx, b); err != nil {
			return saved, dropped, err
		}
		saved++
	}
	return saved, dropped, nil
}

func (m *Manager) importFiles(ctx context.Context, r *run) (int, int, error) {
	plan, err := r.plan()
	if err != nil {
		return 0, 0, err
	}

	repos := newRepoResolver(m)
	branches := map[branchKey]*codesync.RepoBranch{}
	saved, dropped := 0, 0
	for _, rec := range plan.Files {
		repo, err := repos.get(ctx, rec.RepoPath)
		if err != nil {
			return saved, dropped, err
		}
		if repo == nil {
			m.logger.Warn("legacy file has no imported repo, skipping", "repo", rec.RepoPath, "path", rec.Path)
			dropped++
			continue
		}

		key := branchKey{repoID: repo.ID, name: rec.BranchName}
		branch, ok := branches[key]
		if !ok {
			branch, err = m.tables.Branches.Get(ctx, rec.BranchName, repo.ID)
			if err != nil {
				return saved, dropped, err
			}
			branches[key] = branch
		}
		if branch == nil {
			m.logger.Warn("legacy file has no imported branch, skipping", "repo", rec.RepoPath, "branch", rec.BranchName, "path", rec.Path)
			dropped++
			continue
		}

		f := &codesync.RepoFile{Path: rec.Path, RepoBranchID: branch.ID, ServerFileID: rec.ServerFileID}
		if err := m.tables.Files.Save(ctx, f); err != nil {
			return saved, dropped, err
		}
		saved++
	}
	return saved, dropped, nil
}

type branchKey struct {
	repoID int64
	name   string
}

// repoResolver memoizes repo lookups by path, including misses.
type repoResolver struct {
	m     *Manager
	repos map[string]*codesync.Repo
}

func newRepoResolver(m *Manager) *repoResolver {
	return &repoResolver{m: m, repos: map[string]*codesync.Repo{}}
}

func (rr *repoResolver) get(ctx context.Context, path string) (*codesync.Repo, error) {
	if repo, ok := rr.repos[path]; ok {
		return repo, nil
	}
	repo, err := rr.m.tables.Repos.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	rr.repos[path] = repo
	return repo, nil
}
