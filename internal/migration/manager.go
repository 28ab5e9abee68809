// Package migration imports the legacy YAML state into the store, one table
// at a time. Each table has a record in the migrations table that goes from
// PENDING to DONE once its import succeeded, so a failed run is resumed by
// simply running again.
package migration

import (
	"context"
	"errors"
	"fmt"

	"codesync-go/internal/codesync"
	"codesync-go/internal/database"
	"codesync-go/internal/legacy"
	"codesync-go/internal/store"
)

// Source provides the legacy documents.
type Source interface {
	Config() (*legacy.Config, error)
	Users() ([]legacy.UserEntry, error)
}

// Outcome is what happened to one table during a run.
type Outcome string

const (
	// OutcomeDone means the import ran and the table is now DONE.
	OutcomeDone Outcome = "done"
	// OutcomeSkipped means the table was already DONE.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFailed means the import ran and failed; the table stays PENDING.
	OutcomeFailed Outcome = "failed"
	// OutcomeDeferred means the import ran but dropped records whose parent
	// table is not DONE yet; the table stays PENDING so they are retried.
	OutcomeDeferred Outcome = "deferred"
)

// TableResult reports one table of a run.
type TableResult struct {
	Table   string
	Outcome Outcome
	Saved   int   // rows saved by this run
	Dropped int   // legacy records skipped for a missing parent
	Err     error // set when Outcome is OutcomeFailed
}

// Result reports a whole run, tables in import order.
type Result struct {
	Tables []TableResult
}

// Table returns the result for the named table.
func (r *Result) Table(name string) (TableResult, bool) {
	for _, tr := range r.Tables {
		if tr.Table == name {
			return tr, true
		}
	}
	return TableResult{}, false
}

// Complete reports whether every table is DONE after the run.
func (r *Result) Complete() bool {
	for _, tr := range r.Tables {
		if tr.Outcome != OutcomeDone && tr.Outcome != OutcomeSkipped {
			return false
		}
	}
	return true
}

// importer is the interface every entity table satisfies for a run.
type importer interface {
	Name() string
	CreateTable(ctx context.Context) error
}

type step struct {
	table     importer
	ancestors []string
	run       func(ctx context.Context, r *run) (saved, dropped int, err error)
}

// Manager runs the per-table legacy import.
type Manager struct {
	exec   *database.Executor
	tables *store.Tables
	source Source
	logger codesync.Logger
}

// NewManager creates a Manager. A nil logger discards output.
func NewManager(exec *database.Executor, tables *store.Tables, source Source, logger codesync.Logger) *Manager {
	if logger == nil {
		logger = codesync.NewNopLogger()
	}
	return &Manager{exec: exec, tables: tables, source: source, logger: logger}
}

// Run creates the tables in dependency order and imports every table that is
// not DONE yet. A failed table does not stop the tables after it: they import
// whatever rows already have their parents in the store. Import failures are
// reported per table in the Result; the returned error is reserved for storage
// failures, which stop the run.
func (m *Manager) Run(ctx context.Context) (*Result, error) {
	if _, err := m.exec.Connection().Conn(ctx); err != nil {
		return nil, err
	}
	if err := m.tables.Migrations.CreateTable(ctx); err != nil {
		return nil, err
	}

	steps := []step{
		{table: m.tables.Users, run: m.importUsers},
		{table: m.tables.Repos, ancestors: []string{store.UserTableName}, run: m.importRepos},
		{table: m.tables.Branches, ancestors: []string{store.UserTableName, store.RepoTableName}, run: m.importBranches},
		{table: m.tables.Files, ancestors: []string{store.UserTableName, store.RepoTableName, store.RepoBranchTableName}, run: m.importFiles},
	}

	res := &Result{}
	r := &run{source: m.source}
	for _, s := range steps {
		tr, err := m.runStep(ctx, s, r)
		if err != nil {
			return res, err
		}
		res.Tables = append(res.Tables, tr)
	}
	return res, nil
}

func (m *Manager) runStep(ctx context.Context, s step, r *run) (TableResult, error) {
	name := s.table.Name()
	tr := TableResult{Table: name}

	if err := s.table.CreateTable(ctx); err != nil {
		return tr, err
	}

	done, err := m.tables.Migrations.IsDone(ctx, name)
	if err != nil {
		return tr, err
	}
	if done {
		m.logger.Debug("migration already done", "table", name)
		tr.Outcome = OutcomeSkipped
		return tr, nil
	}

	if err := m.tables.Migrations.MarkPending(ctx, name); err != nil {
		return tr, err
	}

	tr.Saved, tr.Dropped, err = s.run(ctx, r)
	if err != nil {
		if errors.Is(err, database.ErrStorageUnavailable) || ctx.Err() != nil {
			return tr, err
		}
		tr.Outcome = OutcomeFailed
		tr.Err = err
		if errors.Is(err, database.ErrConstraintViolation) {
			m.logger.Error("migration failed", "table", name, "saved", tr.Saved, "error", err)
		} else {
			m.logger.Warn("migration failed", "table", name, "saved", tr.Saved, "error", err)
		}
		return tr, nil
	}

	if tr.Dropped > 0 {
		pending, err := m.firstPending(ctx, s.ancestors)
		if err != nil {
			return tr, err
		}
		if pending != "" {
			m.logger.Info("migration deferred", "table", name, "saved", tr.Saved, "dropped", tr.Dropped, "waiting_on", pending)
			tr.Outcome = OutcomeDeferred
			return tr, nil
		}
	}

	if err := m.tables.Migrations.MarkDone(ctx, name); err != nil {
		return tr, err
	}
	m.logger.Info("migration done", "table", name, "saved", tr.Saved, "dropped", tr.Dropped)
	tr.Outcome = OutcomeDone
	return tr, nil
}

// firstPending returns the first of tables that is not DONE, or "".
func (m *Manager) firstPending(ctx context.Context, tables []string) (string, error) {
	for _, name := range tables {
		done, err := m.tables.Migrations.IsDone(ctx, name)
		if err != nil {
			return "", err
		}
		if !done {
			return name, nil
		}
	}
	return "", nil
}

// run caches the parsed legacy documents for the length of one Run, so the
// config document is read once even though three tables import from it.
type run struct {
	source Source

	cfg    *legacy.Config
	cfgErr error
	cfgSet bool

	users    []legacy.UserEntry
	usersErr error
	usersSet bool
}

func (r *run) config() (*legacy.Config, error) {
	if !r.cfgSet {
		r.cfg, r.cfgErr = r.source.Config()
		r.cfgSet = true
	}
	return r.cfg, r.cfgErr
}

func (r *run) userEntries() ([]legacy.UserEntry, error) {
	if !r.usersSet {
		r.users, r.usersErr = r.source.Users()
		r.usersSet = true
	}
	return r.users, r.usersErr
}

func (r *run) plan() (*legacy.Plan, error) {
	cfg, err := r.config()
	if err != nil {
		return nil, fmt.Errorf("loading legacy config: %w", err)
	}
	return legacy.BuildPlan(cfg, nil), nil
}

// TableStatus is the migration state of one table. Started is false when the
// table's import never ran.
type TableStatus struct {
	Table   string
	State   codesync.MigrationState
	Started bool
}

// Status reports the migration state of every imported table in import order.
func (m *Manager) Status(ctx context.Context) ([]TableStatus, error) {
	if err := m.tables.Migrations.CreateTable(ctx); err != nil {
		return nil, err
	}
	names := []string{store.UserTableName, store.RepoTableName, store.RepoBranchTableName, store.RepoFileTableName}
	statuses := make([]TableStatus, 0, len(names))
	for _, name := range names {
		rec, err := m.tables.Migrations.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		st := TableStatus{Table: name}
		if rec != nil {
			st.State = rec.State
			st.Started = true
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}
