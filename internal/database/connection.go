package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"codesync-go/internal/codesync"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// MemoryPath opens a private in-memory database. Data does not survive a reopen.
const MemoryPath = ":memory:"

// ErrStorageUnavailable is returned when the backing database file cannot be
// created or opened. Callers must not continue with migrations after seeing it.
var ErrStorageUnavailable = errors.New("storage unavailable")

// Connection owns the single process-wide database handle.
//
// The handle is opened lazily on first use and reopened transparently when it
// has been closed, whether through Disconnect or by a caller closing the
// *sql.DB directly. A Connection is meant to have one logical owner at a time:
// it serializes open and close, not the statements issued on the handle.
type Connection struct {
	mu     sync.Mutex
	path   string
	db     *sql.DB
	logger codesync.Logger
}

// NewConnection creates a Connection for the database at path.
// path can be a file path or ":memory:". Nothing is opened until Conn is called.
func NewConnection(path string, logger codesync.Logger) *Connection {
	if logger == nil {
		logger = codesync.NewNopLogger()
	}
	return &Connection{path: path, logger: logger}
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (c *Connection) Path() string {
	return c.path
}

// Conn returns a live handle, opening a new one if there is none or the
// current one has been closed. A done ctx is returned as is and leaves the
// current handle alone.
func (c *Connection) Conn(ctx context.Context) (*sql.DB, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		err := c.db.PingContext(ctx)
		if err == nil {
			return c.db, nil
		}
		if !isClosedErr(err) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("checking database: %w", err)
		}
		c.logger.Warn("database handle closed, reopening", "path", c.path)
		c.db.Close()
		c.db = nil
	}

	db, err := OpenConnection(ctx, c.path)
	if err != nil {
		return nil, err
	}
	c.db = db
	c.logger.Debug("database opened", "path", c.path)
	return c.db, nil
}

// IsClosed reports whether there is no usable handle right now.
func (c *Connection) IsClosed(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return true
	}
	return isClosedErr(c.db.PingContext(ctx))
}

// isClosedErr reports whether err says the handle itself was closed.
// database/sql does not export its "database is closed" error.
func isClosedErr(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, sql.ErrConnDone) || strings.Contains(err.Error(), "database is closed")
}

// Disconnect closes the current handle if one is open. Calling it on a closed
// connection is a no-op.
func (c *Connection) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	if err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// OpenConnection opens and configures a SQLite database connection.
// Parent directories of path are created when missing. The returned handle is
// limited to one underlying connection so that per-connection state (foreign
// keys, last insert id) is the same for every statement.
func OpenConnection(ctx context.Context, path string) (*sql.DB, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("%w: creating database directory: %w", ErrStorageUnavailable, err)
		}
	}

	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %w", ErrStorageUnavailable, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// sql.Open is lazy; the ping is what actually creates the file.
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: opening %s: %w", ErrStorageUnavailable, path, err)
	}

	return db, nil
}

// dsn appends the driver options every connection needs.
// Foreign keys are OFF by default in SQLite.
func dsn(path string) string {
	return path + "?_foreign_keys=on&_busy_timeout=5000"
}
