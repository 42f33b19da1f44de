// Package dbtest opens migrated throwaway databases for tests.
package dbtest

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/trezcool/caseload/core"
	"github.com/trezcool/caseload/storage/database"
)

// Tables lists every table, children first.
var Tables = []string{
	"timesheet_notes", "scheduled_sessions", "communications", "due_date_items", "progress_reports",
	"soap_notes", "evaluations", "sessions", "goals", "students", "case_managers", "teachers",
	"lunches", "schools", "users",
}

// Open returns a migrated SQLite database stored at path.
func Open(path string) (*sqlx.DB, error) {
	conf := &core.Config{}
	conf.Database.Engine = database.EngineSQLite
	conf.Database.Path = path

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	if err = database.Migrate(db, quiet); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenDB returns a migrated SQLite database living in the test's temporary directory.
// It is closed when the test ends.
func OpenDB(t testing.TB) *sqlx.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "caseload.db"))
	if err != nil {
		t.Fatalf("OpenDB(): %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// ResetDB empties every table.
func ResetDB(t testing.TB, db *sqlx.DB) {
	t.Helper()
	for _, tbl := range Tables {
		if _, err := db.Exec("DELETE FROM " + tbl); err != nil {
			t.Fatalf("ResetDB(): %v", err)
		}
	}
}
