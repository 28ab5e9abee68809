package store

import (
	"context"
	"fmt"

	"codesync-go/internal/codesync"
	"codesync-go/internal/database"
)

const userColumns = `id, email, access_token, access_key, secret_key, is_active`

// UserTable stores users keyed by email.
type UserTable struct {
	table
}

// NewUserTable creates a UserTable on exec.
func NewUserTable(exec *database.Executor) *UserTable {
	return &UserTable{table{
		name: UserTableName,
		createSQL: `CREATE TABLE IF NOT EXISTS "user" (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT NOT NULL UNIQUE,
			access_token TEXT,
			access_key TEXT,
			secret_key TEXT,
			is_active INTEGER NOT NULL DEFAULT 0
		)`,
		exec: exec,
	}}
}

// Get returns the user with the given email, or nil if there is none.
func (t *UserTable) Get(ctx context.Context, email string) (*codesync.User, error) {
	return t.getOne(ctx, `SELECT `+userColumns+` FROM "user" WHERE email = ?`, email)
}

// GetByID returns the user with the given id, or nil if there is none.
func (t *UserTable) GetByID(ctx context.Context, id int64) (*codesync.User, error) {
	return t.getOne(ctx, `SELECT `+userColumns+` FROM "user" WHERE id = ?`, id)
}

// GetActive returns the active user, or nil if nobody is logged in.
func (t *UserTable) GetActive(ctx context.Context) (*codesync.User, error) {
	return t.getOne(ctx, `SELECT `+userColumns+` FROM "user" WHERE is_active = 1 ORDER BY id LIMIT 1`)
}

func (t *UserTable) getOne(ctx context.Context, query string, args ...any) (*codesync.User, error) {
	row, found, err := t.exec.QueryRow(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding user: %w", err)
	}
	if !found {
		return nil, nil // Not found
	}
	return userFromRow(row)
}

// Insert adds a new user and sets u.ID.
func (t *UserTable) Insert(ctx context.Context, u *codesync.User) error {
	id, err := t.exec.Insert(ctx,
		`INSERT INTO "user" (email, access_token, access_key, secret_key, is_active) VALUES (?, ?, ?, ?, ?)`,
		u.Email, u.AccessToken, u.AccessKey, u.SecretKey, u.IsActive)
	if err != nil {
		return fmt.Errorf("inserting user %s: %w", u.Email, err)
	}
	u.ID = id
	return nil
}

// Update writes the credential columns and the active flag of the row with u.ID.
// Email is the natural key and is never rewritten.
func (t *UserTable) Update(ctx context.Context, u *codesync.User) error {
	_, err := t.exec.Exec(ctx,
		`UPDATE "user" SET access_token = ?, access_key = ?, secret_key = ?, is_active = ? WHERE id = ?`,
		u.AccessToken, u.AccessKey, u.SecretKey, u.IsActive, u.ID)
	if err != nil {
		return fmt.Errorf("updating user %d: %w", u.ID, err)
	}
	return nil
}

// Save inserts u, or updates the existing user with the same email.
func (t *UserTable) Save(ctx context.Context, u *codesync.User) error {
	existing, err := t.Get(ctx, u.Email)
	if err != nil {
		return err
	}
	if existing == nil {
		return t.Insert(ctx, u)
	}
	u.ID = existing.ID
	return t.Update(ctx, u)
}

// MarkOthersInactive clears the active flag on every user except id.
// Only one user is logged in at a time.
func (t *UserTable) MarkOthersInactive(ctx context.Context, id int64) error {
	if _, err := t.exec.Exec(ctx, `UPDATE "user" SET is_active = 0 WHERE id != ?`, id); err != nil {
		return fmt.Errorf("marking users inactive: %w", err)
	}
	return nil
}

// MarkAllInactive clears the active flag on every user.
func (t *UserTable) MarkAllInactive(ctx context.Context) error {
	if _, err := t.exec.Exec(ctx, `UPDATE "user" SET is_active = 0`); err != nil {
		return fmt.Errorf("marking users inactive: %w", err)
	}
	return nil
}

func userFromRow(row database.Row) (*codesync.User, error) {
	id, err := row.Int64("id")
	if err != nil {
		return nil, err
	}
	active, err := row.Bool("is_active")
	if err != nil {
		return nil, err
	}
	return &codesync.User{
		ID:          id,
		Email:       row.String("email"),
		AccessToken: row.String("access_token"),
		AccessKey:   row.NullString("access_key"),
		SecretKey:   row.NullString("secret_key"),
		IsActive:    active,
	}, nil
}
