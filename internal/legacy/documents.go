// Package legacy reads the flat YAML files older clients kept their state in
// (config.yml for repos, user.yml for credentials) and turns them into an
// ordered import plan. Nothing here touches the database.
package legacy

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// ErrInvalidDocument is returned when a legacy file is not valid YAML or does
// not have the expected shape.
var ErrInvalidDocument = errors.New("invalid legacy document")

// Config is the content of config.yml.
type Config struct {
	Repos map[string]RepoEntry `yaml:"repos"`
}

// RepoEntry is one repo in config.yml, keyed by its absolute path.
// Older files use id/email, newer ones server_repo_id/owner_email.
type RepoEntry struct {
	Name           string                       `yaml:"name"`
	ID             *int64                       `yaml:"id"`
	ServerRepoID   *int64                       `yaml:"server_repo_id"`
	Email          string                       `yaml:"email"`
	OwnerEmail     string                       `yaml:"owner_email"`
	State          string                       `yaml:"state"`
	IsInSync       *bool                        `yaml:"is_in_sync"`
	IsDisconnected bool                         `yaml:"is_disconnected"`
	IsDeleted      bool                         `yaml:"is_deleted"`
	Branches       map[string]map[string]*int64 `yaml:"branches"`
}

// Owner returns the owner email, preferring owner_email over email.
func (e RepoEntry) Owner() string {
	if e.OwnerEmail != "" {
		return e.OwnerEmail
	}
	return e.Email
}

// RemoteID returns the server repo id, preferring server_repo_id over id.
func (e RepoEntry) RemoteID() *int64 {
	if e.ServerRepoID != nil {
		return e.ServerRepoID
	}
	return e.ID
}

// UserEntry is one account in user.yml.
type UserEntry struct {
	Email       string  `yaml:"email"`
	AccessToken string  `yaml:"access_token"`
	AccessKey   *string `yaml:"access_key"`
	SecretKey   *string `yaml:"secret_key"`
	IsActive    bool    `yaml:"is_active"`
}

// ReadConfigFile parses the config.yml at path. A missing file is reported
// with an error wrapping fs.ErrNotExist.
func ReadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg, err := ParseConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig parses a config.yml document. An empty document is an empty config.
func ParseConfig(r io.Reader) (*Config, error) {
	var cfg Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if cfg.Repos == nil {
		cfg.Repos = map[string]RepoEntry{}
	}
	return &cfg, nil
}

// ReadUserFile parses the user.yml at path. A missing file is reported with
// an error wrapping fs.ErrNotExist.
func ReadUserFile(path string) ([]UserEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading user file: %w", err)
	}
	users, err := ParseUsers(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return users, nil
}

// ParseUsers parses a user.yml document. Two layouts are accepted: a mapping
// from email to credentials, and a list of entries each carrying its email.
// Entries come back in document order; a mapping is ordered by email.
func ParseUsers(r io.Reader) ([]UserEntry, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	switch root.Kind {
	case yaml.MappingNode:
		return parseUserMap(root)
	case yaml.SequenceNode:
		return parseUserList(root)
	case yaml.ScalarNode:
		if root.Tag == "!!null" {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("%w: user document must be a mapping or a list, line %d", ErrInvalidDocument, root.Line)
}

func parseUserMap(node *yaml.Node) ([]UserEntry, error) {
	var byEmail map[string]UserEntry
	if err := node.Decode(&byEmail); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	users := make([]UserEntry, 0, len(byEmail))
	for email, u := range byEmail {
		u.Email = email
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

func parseUserList(node *yaml.Node) ([]UserEntry, error) {
	var users []UserEntry
	if err := node.Decode(&users); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	for i, u := range users {
		if u.Email == "" {
			return nil, fmt.Errorf("%w: user entry %d has no email", ErrInvalidDocument, i)
		}
	}
	return users, nil
}
