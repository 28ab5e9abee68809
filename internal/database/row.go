package database

import (
	"database/sql"
	"fmt"
	"strconv"
)

// Row is one result row as an ordered mapping from column name to the column's
// textual value. NULL columns are absent.
type Row struct {
	columns []string
	values  map[string]string
}

func newRow(cols []string, values []sql.NullString) Row {
	r := Row{
		columns: append([]string(nil), cols...),
		values:  make(map[string]string, len(cols)),
	}
	for i, v := range values {
		if v.Valid {
			r.values[cols[i]] = v.String
		}
	}
	return r
}

// NewRow builds a Row from alternating column/value pairs. A nil value leaves
// the column absent. Used to test row mappers without a database.
func NewRow(pairs ...any) Row {
	r := Row{values: map[string]string{}}
	for i := 0; i+1 < len(pairs); i += 2 {
		col := pairs[i].(string)
		r.columns = append(r.columns, col)
		if pairs[i+1] != nil {
			r.values[col] = fmt.Sprint(pairs[i+1])
		}
	}
	return r
}

// Columns returns the column names in result-set order.
func (r Row) Columns() []string {
	return r.columns
}

// Get returns the value of col and whether it was non-NULL.
func (r Row) Get(col string) (string, bool) {
	v, ok := r.values[col]
	return v, ok
}

// String returns the value of col, or "" when NULL.
func (r Row) String(col string) string {
	return r.values[col]
}

// NullString returns nil when col is NULL.
func (r Row) NullString(col string) *string {
	v, ok := r.values[col]
	if !ok {
		return nil
	}
	return &v
}

// Int64 parses col as an integer. NULL reads as 0.
func (r Row) Int64(col string) (int64, error) {
	v, ok := r.values[col]
	if !ok {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", col, err)
	}
	return n, nil
}

// NullInt64 parses col as an integer, returning nil when NULL.
func (r Row) NullInt64(col string) (*int64, error) {
	if _, ok := r.values[col]; !ok {
		return nil, nil
	}
	n, err := r.Int64(col)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Bool reads a 0/1 column. NULL reads as false.
func (r Row) Bool(col string) (bool, error) {
	v, ok := r.values[col]
	if !ok {
		return false, nil
	}
	switch v {
	case "1", "true", "TRUE":
		return true, nil
	case "0", "false", "FALSE":
		return false, nil
	default:
		return false, fmt.Errorf("column %s: not a boolean: %q", col, v)
	}
}
