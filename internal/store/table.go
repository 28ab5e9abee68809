// Package store is the table layer over the embedded database: one table type
// per entity kind, each with natural-key lookups and a Save that upserts by
// natural key.
//
// Lookups return (nil, nil) when nothing matches. Save loads the stored row by
// natural key, inserts when there is none, and otherwise updates only the
// columns the entity kind declares mutable. Fields that are fixed at creation
// (for example Repo.Name) keep their stored values and are copied back onto the
// caller's entity.
package store

import (
	"context"
	"fmt"

	"codesync-go/internal/database"
)

// Table names as stored in the migrations table.
const (
	MigrationsTableName = "migrations"
	UserTableName       = "user"
	RepoTableName       = "repo"
	RepoBranchTableName = "repo_branch"
	RepoFileTableName   = "repo_file"
)

// table holds what every entity table shares: its name, its DDL and the
// executor it runs on.
type table struct {
	name      string
	createSQL string
	exec      *database.Executor
}

// Name returns the table name.
func (t *table) Name() string {
	return t.name
}

// CreateTable creates the table if it does not exist yet. Safe to call repeatedly.
func (t *table) CreateTable(ctx context.Context) error {
	if _, err := t.exec.Exec(ctx, t.createSQL); err != nil {
		return fmt.Errorf("creating table %s: %w", t.name, err)
	}
	return nil
}

// Exists reports whether the table is present in the database.
func (t *table) Exists(ctx context.Context) (bool, error) {
	_, found, err := t.exec.QueryRow(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", t.name)
	if err != nil {
		return false, fmt.Errorf("checking table %s: %w", t.name, err)
	}
	return found, nil
}

// Count returns the number of rows in the table.
func (t *table) Count(ctx context.Context) (int64, error) {
	row, _, err := t.exec.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) AS n FROM %q`, t.name))
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", t.name, err)
	}
	return row.Int64("n")
}

// Tables bundles every table of the schema, built on one executor.
type Tables struct {
	Migrations *MigrationTable
	Users      *UserTable
	Repos      *RepoTable
	Branches   *RepoBranchTable
	Files      *RepoFileTable
}

// NewTables creates all tables on exec.
func NewTables(exec *database.Executor) *Tables {
	return &Tables{
		Migrations: NewMigrationTable(exec),
		Users:      NewUserTable(exec),
		Repos:      NewRepoTable(exec),
		Branches:   NewRepoBranchTable(exec),
		Files:      NewRepoFileTable(exec),
	}
}

// CreateAll creates every table, parents first.
func (t *Tables) CreateAll(ctx context.Context) error {
	for _, create := range []func(context.Context) error{
		t.Migrations.CreateTable,
		t.Users.CreateTable,
		t.Repos.CreateTable,
		t.Branches.CreateTable,
		t.Files.CreateTable,
	} {
		if err := create(ctx); err != nil {
			return err
		}
	}
	return nil
}
