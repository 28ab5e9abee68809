package codesync

import (
	"fmt"
	"strings"
)

// RepoState is the connection state of a local working copy.
type RepoState string

const (
	RepoStateSynced       RepoState = "SYNCED"
	RepoStateNotSynced    RepoState = "NOT_SYNCED"
	RepoStateDisconnected RepoState = "DISCONNECTED"
	RepoStateDeleted      RepoState = "DELETED"
)

// ParseRepoState accepts the stored form ("DISCONNECTED") as well as the
// display form used by older config files ("Disconnected", "not synced").
func ParseRepoState(s string) (RepoState, error) {
	switch normalizeEnum(s) {
	case "SYNCED":
		return RepoStateSynced, nil
	case "NOT_SYNCED":
		return RepoStateNotSynced, nil
	case "DISCONNECTED":
		return RepoStateDisconnected, nil
	case "DELETED":
		return RepoStateDeleted, nil
	default:
		return "", fmt.Errorf("unknown repo state: %q", s)
	}
}

// MigrationState tracks whether a table's legacy import has completed.
// The only transition is PENDING -> DONE.
type MigrationState string

const (
	MigrationPending MigrationState = "PENDING"
	MigrationDone    MigrationState = "DONE"
)

// ParseMigrationState parses a stored migration state.
func ParseMigrationState(s string) (MigrationState, error) {
	switch normalizeEnum(s) {
	case "PENDING":
		return MigrationPending, nil
	case "DONE":
		return MigrationDone, nil
	default:
		return "", fmt.Errorf("unknown migration state: %q", s)
	}
}

var enumReplacer = strings.NewReplacer(" ", "_", "-", "_")

func normalizeEnum(s string) string {
	return enumReplacer.Replace(strings.ToUpper(strings.TrimSpace(s)))
}

// User is an account known to this client. Email is the natural key.
type User struct {
	ID          int64
	Email       string
	AccessToken string
	AccessKey   *string // IAM access key, nil when never issued
	SecretKey   *string
	IsActive    bool
}

// Repo is a connected local working copy. Path is the natural key.
// Name and ServerRepoID are fixed by the first save.
type Repo struct {
	ID           int64
	ServerRepoID *int64
	Name         string
	Path         string // absolute path on this host
	UserID       int64
	State        RepoState
}

func (r *Repo) IsDeleted() bool      { return r.State == RepoStateDeleted }
func (r *Repo) IsDisconnected() bool { return r.State == RepoStateDisconnected }

// RepoBranch is a branch of a Repo. (Name, RepoID) is the natural key.
type RepoBranch struct {
	ID     int64
	Name   string
	RepoID int64
}

// RepoFile is a file tracked on a branch. (Path, RepoBranchID) is the natural key.
type RepoFile struct {
	ID           int64
	Path         string // relative to the branch root
	RepoBranchID int64
	ServerFileID *int64 // nil until the backend has assigned an id
}

// MigrationRecord is the migration state of one table.
type MigrationRecord struct {
	TableName string
	State     MigrationState
}
