package rbac

import (
	"database/sql"
	"os"
	"testing"

	_ "github.com/lib/pq"
)

// SkipIfNoDatabase skips the test if TEST_POSTGRES_PRIMARY is not set and returns its value otherwise.
func SkipIfNoDatabase(t *testing.T) string {
	t.Helper()

	dbURL := os.Getenv("TEST_POSTGRES_PRIMARY")
	if dbURL == "" {
		t.Skip("Skipping test: TEST_POSTGRES_PRIMARY environment variable not set (database not available)")
	}

	return dbURL
}

// RequireDatabase opens the database named by TEST_POSTGRES_PRIMARY or skips the test.
func RequireDatabase(t *testing.T) *sql.DB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping database test in short mode")
	}
	dbURL := SkipIfNoDatabase(t)

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		t.Skipf("Failed to connect to database: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("Database not reachable: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}
