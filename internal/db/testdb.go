package db

import (
	"database/sql"
	"testing"
)

// NewTestDB returns an in-memory database with all migrations applied.
// The pool is pinned to one connection: every :memory: connection is a
// separate database, so a second one would come up without the schema.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory database: %v", err)
	}
	database.SetMaxOpenConns(1)

	if err := Migrate(database); err != nil {
		database.Close()
		t.Fatalf("migrate test database: %v", err)
	}

	t.Cleanup(func() { database.Close() })
	return database
}
