package db

import (
	"context"
	"database/sql"
	"testing"
)

// OpenTest returns an in-memory SQLite handle with the schema applied,
// closed when the test ends.
func OpenTest(t testing.TB) *sql.DB {
	t.Helper()
	h, err := Open(context.Background(), DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}
