package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"codesync-go/internal/codesync"
	"codesync-go/internal/config"
	"codesync-go/internal/database"
	"codesync-go/internal/database/migrations"
	"codesync-go/internal/legacy"
	"codesync-go/internal/migration"
	"codesync-go/internal/store"
)

// App is the application layer between the CLI and codesync.Service.
// It constructs all dependencies from config, runs the legacy import and the
// schema upgrades on startup, exposes operations that accept raw string
// paths, and closes the store on Close.
type App struct {
	cfg       *config.Config
	conn      *database.Connection
	tables    *store.Tables
	migrator  *migration.Manager
	service   *codesync.Service
	op        *Operation
	logger    *slog.Logger
	logCloser io.Closer
	startup   *migration.Result
}

// New creates a fully wired App from the given config.
// operation identifies the CLI command being run (e.g. "ConnectRepo", "Migrate").
// The caller must call Close when done.
func New(ctx context.Context, cfg *config.Config, operation string) (*App, error) {
	return newApp(ctx, cfg, operation, codesync.UUIDGenerator{}, os.Stderr)
}

func newApp(ctx context.Context, cfg *config.Config, operation string, idgen codesync.IDGenerator, stderr io.Writer) (*App, error) {
	op := NewOperation(idgen.New(), operation, "")

	logger, logCloser, err := newLogger(cfg.LogDir, cfg.Log, op.ID, stderr)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	adapter := &slogAdapter{l: logger}

	conn, err := database.NewConnectionFromConfig(cfg.Database, adapter)
	if err != nil {
		logCloser.Close()
		return nil, fmt.Errorf("creating database: %w", err)
	}

	exec := database.NewExecutor(conn)
	tables := store.NewTables(exec)
	source := legacy.Files{ConfigPath: cfg.Legacy.ConfigPath, UserPath: cfg.Legacy.UserPath}
	migrator := migration.NewManager(exec, tables, source, adapter)

	a := &App{
		cfg:       cfg,
		conn:      conn,
		tables:    tables,
		migrator:  migrator,
		service:   codesync.NewService(tables.Users, tables.Repos, tables.Branches, tables.Files, adapter),
		op:        op,
		logger:    logger,
		logCloser: logCloser,
	}

	if err := a.startupMigrations(ctx); err != nil {
		a.close()
		return nil, err
	}

	logger.Debug("operation started", "operation", op.Name)
	return a, nil
}

// startupMigrations runs the legacy import and then the versioned schema
// upgrades, which index tables the import creates.
func (a *App) startupMigrations(ctx context.Context) error {
	res, err := a.migrator.Run(ctx)
	if err != nil {
		return fmt.Errorf("running legacy migration: %w", err)
	}
	a.startup = res

	db, err := a.conn.Conn(ctx)
	if err != nil {
		return err
	}
	if err := migrations.MigrateUp(db); err != nil {
		return fmt.Errorf("upgrading schema: %w", err)
	}
	return nil
}

// Service returns the runtime service.
func (a *App) Service() *codesync.Service {
	return a.service
}

// StartupMigration returns the result of the legacy import run by New.
func (a *App) StartupMigration() *migration.Result {
	return a.startup
}

// Migrate runs the legacy import again. Tables that are already done are skipped.
func (a *App) Migrate(ctx context.Context) (*migration.Result, error) {
	return a.migrator.Run(ctx)
}

// MigrationStatus reports per-table import state and the schema version.
func (a *App) MigrationStatus(ctx context.Context) ([]migration.TableStatus, migrations.Status, error) {
	tables, err := a.migrator.Status(ctx)
	if err != nil {
		return nil, migrations.Status{}, err
	}
	db, err := a.conn.Conn(ctx)
	if err != nil {
		return nil, migrations.Status{}, err
	}
	schema, err := migrations.GetStatus(db)
	if err != nil {
		return nil, migrations.Status{}, err
	}
	return tables, schema, nil
}

// Login stores credentials and makes email the active user.
func (a *App) Login(ctx context.Context, email, accessToken, accessKey, secretKey string) (*codesync.User, error) {
	a.op.Params = email
	return a.service.Login(ctx, email, accessToken, optional(accessKey), optional(secretKey))
}

// ActiveUser returns the logged-in user, or nil.
func (a *App) ActiveUser(ctx context.Context) (*codesync.User, error) {
	return a.service.ActiveUser(ctx)
}

// ConnectRepo resolves rawPath and connects it for the active user.
// A serverRepoID of zero means the server id is not known yet.
func (a *App) ConnectRepo(ctx context.Context, rawPath string, serverRepoID int64, branch string) (*codesync.Repo, error) {
	p, err := resolve(rawPath)
	if err != nil {
		return nil, err
	}
	a.op.Params = p
	var id *int64
	if serverRepoID != 0 {
		id = &serverRepoID
	}
	return a.service.ConnectRepo(ctx, p, id, branch)
}

// DisconnectRepo resolves rawPath and marks the repo disconnected.
func (a *App) DisconnectRepo(ctx context.Context, rawPath string) (*codesync.Repo, error) {
	p, err := resolve(rawPath)
	if err != nil {
		return nil, err
	}
	a.op.Params = p
	return a.service.DisconnectRepo(ctx, p)
}

// GetRepo resolves rawPath and returns the repo with its branches.
func (a *App) GetRepo(ctx context.Context, rawPath string) (*codesync.Repo, []*codesync.RepoBranch, error) {
	p, err := resolve(rawPath)
	if err != nil {
		return nil, nil, err
	}
	repo, err := a.service.Repo(ctx, p)
	if err != nil {
		return nil, nil, err
	}
	branches, err := a.service.Branches(ctx, p)
	if err != nil {
		return nil, nil, err
	}
	return repo, branches, nil
}

// ListRepos returns every repo, or only the active user's when mine is set.
func (a *App) ListRepos(ctx context.Context, mine bool) ([]*codesync.Repo, error) {
	if mine {
		return a.service.ReposForActiveUser(ctx)
	}
	return a.service.Repos(ctx)
}

// GetFile resolves rawRepoPath and returns the file tracked on branch, or nil.
func (a *App) GetFile(ctx context.Context, rawRepoPath, branch, filePath string) (*codesync.RepoFile, error) {
	p, err := resolve(rawRepoPath)
	if err != nil {
		return nil, err
	}
	return a.service.File(ctx, p, branch, filePath)
}

// Fail marks the current operation as failed; Close logs it.
func (a *App) Fail(err error) {
	a.op.Fail()
	a.logger.Error("operation failed", "operation", a.op.Name, "error", err)
}

// Close logs the end of the operation and closes the store and the log file.
func (a *App) Close() error {
	a.logger.Debug("operation finished", "operation", a.op.Name, "params", a.op.Params, "status", a.op.Status)
	return a.close()
}

func (a *App) close() error {
	var firstErr error
	if err := a.conn.Disconnect(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}
	if a.logCloser != nil {
		if err := a.logCloser.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing log file: %w", err)
		}
	}
	return firstErr
}

func resolve(rawPath string) (string, error) {
	p, err := filepath.Abs(rawPath)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	return p, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
