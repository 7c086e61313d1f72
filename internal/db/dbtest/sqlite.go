// Package dbtest opens throwaway SQLite stores with the schema of the
// modeltest fixtures.
package dbtest

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"RestQueryAPI/internal/db"
)

var Schema = []string{
	`CREATE TABLE departments (
		id INTEGER PRIMARY KEY,
		title TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE people (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		status TEXT,
		age INTEGER,
		active INTEGER,
		manager_id INTEGER REFERENCES people(id),
		department_id INTEGER REFERENCES departments(id)
	)`,
	`CREATE TABLE tasks (
		id INTEGER PRIMARY KEY,
		title TEXT,
		person_id INTEGER REFERENCES people(id)
	)`,
}

// Open returns an empty store with Schema applied, closed on cleanup.
func Open(t testing.TB) *db.SQLiteStore {
	t.Helper()
	ctx := context.Background()
	s, err := db.InitSQLite(ctx, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("InitSQLite: %v", err)
	}
	t.Cleanup(s.Close)
	for _, stmt := range Schema {
		if _, err := s.Exec(ctx, stmt); err != nil {
			t.Fatalf("schema: %v", err)
		}
	}
	return s
}

// Exec runs seed statements, failing the test on the first error.
func Exec(t testing.TB, s db.Store, stmts ...string) {
	t.Helper()
	for _, stmt := range stmts {
		if _, err := s.Exec(context.Background(), stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
}

// SeedPeople inserts n people named "Person 01".."Person NN", alternating
// status active/inactive.
func SeedPeople(t testing.TB, s db.Store, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		status := "active"
		if i%2 == 0 {
			status = "inactive"
		}
		Exec(t, s, fmt.Sprintf(
			`INSERT INTO people (id, name, status, age) VALUES (%d, 'Person %02d', '%s', %d)`,
			i, i, status, 20+i,
		))
	}
}
