package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"codesync-go/internal/database"
	"codesync-go/internal/database/migrations"
	"codesync-go/internal/store"
)

func main() {
	ctx := context.Background()

	conn := database.NewConnection(database.MemoryPath, nil)
	defer conn.Disconnect()
	exec := database.NewExecutor(conn)

	// Base tables first, then the versioned upgrades on top.
	if err := store.NewTables(exec).CreateAll(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Creating tables failed: %v\n", err)
		os.Exit(1)
	}
	db, err := conn.Conn(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	if err := migrations.MigrateUp(db); err != nil {
		fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
		os.Exit(1)
	}

	schema, err := database.DumpSchema(ctx, exec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to extract schema: %v\n", err)
		os.Exit(1)
	}

	outPath := filepath.Join("internal", "database", "schema.sql")
	if err := os.WriteFile(outPath, []byte(schema), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write schema file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %s\n", outPath)
}
