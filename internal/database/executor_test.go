package database

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()

	conn := NewConnection(MemoryPath, nil)
	t.Cleanup(func() {
		conn.Disconnect()
	})

	exec := NewExecutor(conn)
	_, err := exec.Exec(context.Background(), `
		CREATE TABLE parent (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT UNIQUE);
		CREATE TABLE child (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			parent_id INTEGER,
			note TEXT,
			flag INTEGER,
			FOREIGN KEY (parent_id) REFERENCES parent (id)
		);
	`)
	if err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
	return exec
}

func TestExecutor_Insert(t *testing.T) {
	exec := newTestExecutor(t)
	ctx := context.Background()

	first, err := exec.Insert(ctx, "INSERT INTO parent (name) VALUES (?)", "a")
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	second, err := exec.Insert(ctx, "INSERT INTO parent (name) VALUES (?)", "b")
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if first == 0 || second == 0 || first == second {
		t.Errorf("Insert() ids = %d, %d, want distinct non-zero ids", first, second)
	}
}

func TestExecutor_Query(t *testing.T) {
	t.Run("preserves column order and maps NULL to absent", func(t *testing.T) {
		exec := newTestExecutor(t)
		ctx := context.Background()

		pid, err := exec.Insert(ctx, "INSERT INTO parent (name) VALUES (?)", "p")
		if err != nil {
			t.Fatalf("Insert(parent) error = %v", err)
		}
		var note *string
		if _, err := exec.Insert(ctx, "INSERT INTO child (parent_id, note, flag) VALUES (?, ?, ?)", pid, note, true); err != nil {
			t.Fatalf("Insert(child) error = %v", err)
		}

		rows, err := exec.Query(ctx, "SELECT flag, note, parent_id, id FROM child")
		if err != nil {
			t.Fatalf("Query() error = %v", err)
		}
		if len(rows) != 1 {
			t.Fatalf("len(rows) = %d, want 1", len(rows))
		}

		row := rows[0]
		wantCols := []string{"flag", "note", "parent_id", "id"}
		if !reflect.DeepEqual(row.Columns(), wantCols) {
			t.Errorf("Columns() = %v, want %v", row.Columns(), wantCols)
		}
		if _, ok := row.Get("note"); ok {
			t.Error("Get(note) ok = true for NULL column, want false")
		}
		if row.NullString("note") != nil {
			t.Error("NullString(note) != nil for NULL column")
		}
		if v, _ := row.Get("flag"); v != "1" {
			t.Errorf("flag = %q, want %q", v, "1")
		}
		flag, err := row.Bool("flag")
		if err != nil || !flag {
			t.Errorf("Bool(flag) = %v, %v, want true, nil", flag, err)
		}
		gotPID, err := row.Int64("parent_id")
		if err != nil {
			t.Fatalf("Int64(parent_id) error = %v", err)
		}
		if gotPID != pid {
			t.Errorf("parent_id = %d, want %d", gotPID, pid)
		}
	})

	t.Run("returns no rows for an empty match", func(t *testing.T) {
		exec := newTestExecutor(t)

		row, found, err := exec.QueryRow(context.Background(), "SELECT * FROM parent WHERE name = ?", "missing")
		if err != nil {
			t.Fatalf("QueryRow() error = %v", err)
		}
		if found {
			t.Errorf("QueryRow() found = true, row = %v", row)
		}
	})

	t.Run("parameters are not interpolated", func(t *testing.T) {
		exec := newTestExecutor(t)
		ctx := context.Background()

		name := "x'); DROP TABLE parent; --"
		if _, err := exec.Insert(ctx, "INSERT INTO parent (name) VALUES (?)", name); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
		row, found, err := exec.QueryRow(ctx, "SELECT name FROM parent WHERE name = ?", name)
		if err != nil {
			t.Fatalf("QueryRow() error = %v", err)
		}
		if !found || row.String("name") != name {
			t.Errorf("QueryRow() = %v, %v, want stored name %q", row, found, name)
		}
	})
}

func TestExecutor_ConstraintViolation(t *testing.T) {
	t.Run("unique", func(t *testing.T) {
		exec := newTestExecutor(t)
		ctx := context.Background()

		if _, err := exec.Insert(ctx, "INSERT INTO parent (name) VALUES (?)", "dup"); err != nil {
			t.Fatalf("first Insert() error = %v", err)
		}
		_, err := exec.Insert(ctx, "INSERT INTO parent (name) VALUES (?)", "dup")
		if !errors.Is(err, ErrConstraintViolation) {
			t.Errorf("second Insert() error = %v, want ErrConstraintViolation", err)
		}
	})

	t.Run("foreign key", func(t *testing.T) {
		exec := newTestExecutor(t)

		_, err := exec.Insert(context.Background(), "INSERT INTO child (parent_id) VALUES (?)", 999)
		if !errors.Is(err, ErrConstraintViolation) {
			t.Errorf("Insert() error = %v, want ErrConstraintViolation", err)
		}
	})
}

func TestNormalizeArg(t *testing.T) {
	type state string
	n := int64(7)
	s := "v"
	var nilInt *int64

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"true", true, 1},
		{"false", false, 0},
		{"int", 5, 5},
		{"pointer", &n, int64(7)},
		{"string pointer", &s, "v"},
		{"nil pointer", nilInt, nil},
		{"named string", state("DONE"), "DONE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeArg(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("normalizeArg(%v) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}
