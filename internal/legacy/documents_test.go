package legacy

import (
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadConfigFile(t *testing.T) {
	cfg, err := ReadConfigFile(filepath.Join("testdata", "config.yml"))
	require.NoError(t, err)
	require.Len(t, cfg.Repos, 2)

	r1 := cfg.Repos["/home/dev/projects/r1"]
	assert.Equal(t, "a@x.com", r1.Owner())
	require.NotNil(t, r1.RemoteID())
	assert.Equal(t, int64(1001), *r1.RemoteID())
	assert.True(t, r1.IsDisconnected)
	require.Contains(t, r1.Branches, "main")
	assert.Contains(t, r1.Branches, "feature")
	assert.Nil(t, r1.Branches["feature"])
	require.NotNil(t, r1.Branches["main"]["f1.txt"])
	assert.Equal(t, int64(10), *r1.Branches["main"]["f1.txt"])
	assert.Nil(t, r1.Branches["main"]["docs/readme.md"])

	r2 := cfg.Repos["/home/dev/projects/r2"]
	assert.Equal(t, "b@x.com", r2.Owner())
	assert.Equal(t, int64(1002), *r2.RemoteID())
	assert.Equal(t, "second", r2.Name)
}

func TestReadConfigFile_Missing(t *testing.T) {
	_, err := ReadConfigFile(filepath.Join(t.TempDir(), "config.yml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantRepos int
		wantErr   bool
	}{
		{name: "empty document", input: "", wantRepos: 0},
		{name: "no repos key", input: "other: 1\n", wantRepos: 0},
		{name: "null repo entry", input: "repos:\n  /r1:\n", wantRepos: 1},
		{name: "not yaml", input: "repos: [unclosed\n", wantErr: true},
		{name: "repos is a list", input: "repos:\n  - /r1\n", wantErr: true},
		{name: "bad file id", input: "repos:\n  /r1:\n    branches:\n      main:\n        f: abc\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseConfig(strings.NewReader(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidDocument)
				return
			}
			require.NoError(t, err)
			assert.Len(t, cfg.Repos, tt.wantRepos)
		})
	}
}

func TestReadUserFile_Mapping(t *testing.T) {
	users, err := ReadUserFile(filepath.Join("testdata", "user.yml"))
	require.NoError(t, err)
	require.Len(t, users, 2)

	assert.Equal(t, "a@x.com", users[0].Email)
	assert.Equal(t, "T", users[0].AccessToken)
	require.NotNil(t, users[0].AccessKey)
	assert.Equal(t, "AKIA123", *users[0].AccessKey)
	assert.True(t, users[0].IsActive)

	assert.Equal(t, "b@x.com", users[1].Email)
	assert.Nil(t, users[1].AccessKey)
	assert.Nil(t, users[1].SecretKey)
	assert.False(t, users[1].IsActive)
}

func TestParseUsers_List(t *testing.T) {
	input := `
- email: z@x.com
  access_token: Z
  is_active: true
- email: a@x.com
  access_token: A
  secret_key: sk
`
	users, err := ParseUsers(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, users, 2)

	// list order is kept
	assert.Equal(t, "z@x.com", users[0].Email)
	assert.Equal(t, "a@x.com", users[1].Email)
	require.NotNil(t, users[1].SecretKey)
	assert.Equal(t, "sk", *users[1].SecretKey)
}

func TestParseUsers_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "scalar root", input: "just a string\n"},
		{name: "list entry without email", input: "- access_token: T\n"},
		{name: "broken yaml", input: "a@x.com: {access_token: T\n"},
		{name: "wrong field type", input: "a@x.com:\n  is_active: [1, 2]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseUsers(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidDocument)
		})
	}
}

func TestParseUsers_Empty(t *testing.T) {
	for _, input := range []string{"", "~\n"} {
		users, err := ParseUsers(strings.NewReader(input))
		require.NoError(t, err)
		assert.Empty(t, users)
	}
}
