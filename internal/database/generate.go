package database

// To regenerate schema.sql, the reference dump of the full schema:
//   go generate ./internal/database

//go:generate sh -c "cd ../.. && go run internal/database/tools/generate_schema.go"
