package store

import (
	"context"
	"fmt"

	"codesync-go/internal/codesync"
	"codesync-go/internal/database"
)

// MigrationTable records, per table, whether its legacy import has completed.
type MigrationTable struct {
	table
}

// NewMigrationTable creates a MigrationTable on exec.
func NewMigrationTable(exec *database.Executor) *MigrationTable {
	return &MigrationTable{table{
		name: MigrationsTableName,
		createSQL: `CREATE TABLE IF NOT EXISTS migrations (
			table_name TEXT PRIMARY KEY,
			state TEXT NOT NULL
		)`,
		exec: exec,
	}}
}

// Get returns the record for tableName, or nil if its migration never started.
func (t *MigrationTable) Get(ctx context.Context, tableName string) (*codesync.MigrationRecord, error) {
	row, found, err := t.exec.QueryRow(ctx, `SELECT table_name, state FROM migrations WHERE table_name = ?`, tableName)
	if err != nil {
		return nil, fmt.Errorf("finding migration record %s: %w", tableName, err)
	}
	if !found {
		return nil, nil // Not found
	}
	state, err := codesync.ParseMigrationState(row.String("state"))
	if err != nil {
		return nil, fmt.Errorf("migration record %s: %w", tableName, err)
	}
	return &codesync.MigrationRecord{TableName: row.String("table_name"), State: state}, nil
}

// IsDone reports whether tableName's migration has completed.
func (t *MigrationTable) IsDone(ctx context.Context, tableName string) (bool, error) {
	rec, err := t.Get(ctx, tableName)
	if err != nil {
		return false, err
	}
	return rec != nil && rec.State == codesync.MigrationDone, nil
}

// MarkPending records that tableName's migration is about to run. A DONE
// record is left untouched.
func (t *MigrationTable) MarkPending(ctx context.Context, tableName string) error {
	_, err := t.exec.Exec(ctx,
		`INSERT INTO migrations (table_name, state) VALUES (?, ?) ON CONFLICT (table_name) DO NOTHING`,
		tableName, codesync.MigrationPending)
	if err != nil {
		return fmt.Errorf("marking migration %s pending: %w", tableName, err)
	}
	return nil
}

// MarkDone records that tableName's migration has completed.
func (t *MigrationTable) MarkDone(ctx context.Context, tableName string) error {
	_, err := t.exec.Exec(ctx,
		`INSERT INTO migrations (table_name, state) VALUES (?, ?)
		 ON CONFLICT (table_name) DO UPDATE SET state = excluded.state`,
		tableName, codesync.MigrationDone)
	if err != nil {
		return fmt.Errorf("marking migration %s done: %w", tableName, err)
	}
	return nil
}

// List returns every record ordered by table name.
func (t *MigrationTable) List(ctx context.Context) ([]*codesync.MigrationRecord, error) {
	rows, err := t.exec.Query(ctx, `SELECT table_name, state FROM migrations ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("listing migration records: %w", err)
	}
	result := make([]*codesync.MigrationRecord, 0, len(rows))
	for _, row := range rows {
		state, err := codesync.ParseMigrationState(row.String("state"))
		if err != nil {
			return nil, fmt.Errorf("migration record %s: %w", row.String("table_name"), err)
		}
		result = append(result, &codesync.MigrationRecord{TableName: row.String("table_name"), State: state})
	}
	return result, nil
}
