package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"

	"github.com/mattn/go-sqlite3"
)

// ErrConstraintViolation is returned when a statement breaks a UNIQUE or
// FOREIGN KEY constraint. Upserts go through a natural-key lookup first, so
// seeing this from Save means the natural key was computed wrongly.
var ErrConstraintViolation = errors.New("constraint violation")

// Executor runs parameterized statements against the current handle of a
// Connection. Every call asks the Connection for its handle, so a handle closed
// between calls is reopened without the caller noticing.
type Executor struct {
	conn *Connection
}

// NewExecutor creates an Executor bound to conn.
func NewExecutor(conn *Connection) *Executor {
	return &Executor{conn: conn}
}

// Connection returns the connection the executor runs against.
func (e *Executor) Connection() *Connection {
	return e.conn
}

// Exec runs a statement that returns no rows (DDL or DML).
func (e *Executor) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	db, err := e.conn.Conn(ctx)
	if err != nil {
		return nil, err
	}
	res, err := db.ExecContext(ctx, query, normalizeArgs(args)...)
	if err != nil {
		return nil, classify(err)
	}
	return res, nil
}

// Insert runs an INSERT and returns the engine-assigned rowid.
func (e *Executor) Insert(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := e.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading inserted id: %w", err)
	}
	return id, nil
}

// Query runs a SELECT and reads every row. Each row keeps the column order of
// the result set; NULL columns are absent from the row.
func (e *Executor) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	db, err := e.conn.Conn(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query, normalizeArgs(args)...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	var result []Row
	for rows.Next() {
		values := make([]sql.NullString, len(cols))
		dest := make([]any, len(cols))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		result = append(result, newRow(cols, values))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return result, nil
}

// QueryRow runs a SELECT and returns its first row. found is false when the
// query matched nothing.
func (e *Executor) QueryRow(ctx context.Context, query string, args ...any) (row Row, found bool, err error) {
	rows, err := e.Query(ctx, query, args...)
	if err != nil {
		return Row{}, false, err
	}
	if len(rows) == 0 {
		return Row{}, false, nil
	}
	return rows[0], true, nil
}

// normalizeArgs canonicalizes parameters: nil pointers become NULL, other
// pointers are dereferenced and booleans are stored as 0/1.
func normalizeArgs(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = normalizeArg(a)
	}
	return out
}

func normalizeArg(a any) any {
	switch v := a.(type) {
	case nil:
		return nil
	case bool:
		if v {
			return 1
		}
		return 0
	}

	rv := reflect.ValueOf(a)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		return normalizeArg(rv.Elem().Interface())
	}
	if rv.Kind() == reflect.String {
		// Named string types (enums) are not driver values on their own.
		return rv.String()
	}
	return a
}

// classify wraps SQLite constraint failures with ErrConstraintViolation.
func classify(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%w: %v", ErrConstraintViolation, err)
	}
	return err
}
