package database

import (
	"context"
	"fmt"
	"strings"
)

const schemaHeader = `-- This file is auto-generated from the table definitions and migration files.
-- DO NOT EDIT MANUALLY. Run 'go generate ./internal/database' to regenerate.

`

// DumpSchema returns the CREATE statements of every table and index, tables
// first, each group ordered by name. SQLite internals and the golang-migrate
// bookkeeping table are left out.
func DumpSchema(ctx context.Context, exec *Executor) (string, error) {
	rows, err := exec.Query(ctx, `
		SELECT sql || ';' AS stmt
		FROM sqlite_master
		WHERE type IN ('table', 'index')
		  AND sql IS NOT NULL
		  AND name NOT LIKE 'sqlite_%'
		  AND tbl_name != 'schema_migrations'
		ORDER BY
		  CASE type
		    WHEN 'table' THEN 1
		    WHEN 'index' THEN 2
		  END,
		  name`)
	if err != nil {
		return "", fmt.Errorf("reading schema: %w", err)
	}

	var b strings.Builder
	b.WriteString(schemaHeader)
	for _, row := range rows {
		b.WriteString(row.String("stmt"))
		b.WriteString("\n\n")
	}
	return b.String(), nil
}
