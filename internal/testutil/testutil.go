package testutil

import (
	"strings"
	"testing"

	"gorm.io/gorm"

	"employee-dashboard/internal/config"
	"employee-dashboard/internal/db"
)

var dbNameReplacer = strings.NewReplacer("/", "_", " ", "_", "#", "_")

// OpenTestDB opens a private in-memory SQLite database named after the test.
// The database is closed through t.Cleanup.
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + dbNameReplacer.Replace(t.Name()) + "?mode=memory&cache=shared"
	database, err := db.Connect(config.Config{DatabaseURL: dsn, DBLogLevel: "silent"})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(database) })
	return database
}
