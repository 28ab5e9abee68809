package legacy

import (
	"path/filepath"
	"sort"

	"codesync-go/internal/codesync"
)

// UserRecord is a user to import, keyed by Email.
type UserRecord struct {
	Email       string
	AccessToken string
	AccessKey   *string
	SecretKey   *string
	IsActive    bool
}

// RepoRecord is a repo to import, keyed by Path. OwnerEmail may be empty when
// the legacy entry named no owner.
type RepoRecord struct {
	Path         string
	Name         string
	ServerRepoID *int64
	OwnerEmail   string
	State        codesync.RepoState
}

// BranchRecord is a branch to import, keyed by (RepoPath, Name).
type BranchRecord struct {
	RepoPath string
	Name     string
}

// FileRecord is a file to import, keyed by (RepoPath, BranchName, Path).
type FileRecord struct {
	RepoPath     string
	BranchName   string
	Path         string
	ServerFileID *int64
}

// Plan is the normalized content of the legacy files, parents before
// children. Each slice is deduplicated by natural key and sorted by it.
type Plan struct {
	Users    []UserRecord
	Repos    []RepoRecord
	Branches []BranchRecord
	Files    []FileRecord
}

// BuildPlan flattens cfg and users into import records. Either input may be
// nil. When users lists the same email twice the later entry wins.
func BuildPlan(cfg *Config, users []UserEntry) *Plan {
	plan := &Plan{}

	byEmail := make(map[string]UserRecord, len(users))
	for _, u := range users {
		if u.Email == "" {
			continue
		}
		byEmail[u.Email] = UserRecord{
			Email:       u.Email,
			AccessToken: u.AccessToken,
			AccessKey:   u.AccessKey,
			SecretKey:   u.SecretKey,
			IsActive:    u.IsActive,
		}
	}
	for _, u := range byEmail {
		plan.Users = append(plan.Users, u)
	}
	sort.Slice(plan.Users, func(i, j int) bool { return plan.Users[i].Email < plan.Users[j].Email })

	if cfg == nil {
		return plan
	}

	paths := make([]string, 0, len(cfg.Repos))
	for p := range cfg.Repos {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, repoPath := range paths {
		entry := cfg.Repos[repoPath]
		plan.Repos = append(plan.Repos, RepoRecord{
			Path:         repoPath,
			Name:         repoName(repoPath, entry),
			ServerRepoID: entry.RemoteID(),
			OwnerEmail:   entry.Owner(),
			State:        DeriveState(entry),
		})

		branches := make([]string, 0, len(entry.Branches))
		for b := range entry.Branches {
			branches = append(branches, b)
		}
		sort.Strings(branches)

		for _, branch := range branches {
			plan.Branches = append(plan.Branches, BranchRecord{RepoPath: repoPath, Name: branch})

			files := entry.Branches[branch]
			filePaths := make([]string, 0, len(files))
			for f := range files {
				filePaths = append(filePaths, f)
			}
			sort.Strings(filePaths)

			for _, f := range filePaths {
				plan.Files = append(plan.Files, FileRecord{
					RepoPath:     repoPath,
					BranchName:   branch,
					Path:         f,
					ServerFileID: files[f],
				})
			}
		}
	}
	return plan
}

// DeriveState picks the repo state for a legacy entry. An explicit, valid
// state field wins; otherwise the flags are consulted in order disconnected,
// deleted, in sync. A missing is_in_sync counts as in sync.
func DeriveState(e RepoEntry) codesync.RepoState {
	if e.State != "" {
		if s, err := codesync.ParseRepoState(e.State); err == nil {
			return s
		}
	}
	switch {
	case e.IsDisconnected:
		return codesync.RepoStateDisconnected
	case e.IsDeleted:
		return codesync.RepoStateDeleted
	case e.IsInSync == nil || *e.IsInSync:
		return codesync.RepoStateSynced
	default:
		return codesync.RepoStateNotSynced
	}
}

func repoName(repoPath string, e RepoEntry) string {
	if e.Name != "" {
		return e.Name
	}
	return filepath.Base(repoPath)
}
