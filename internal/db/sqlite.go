package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type SQLiteStore struct {
	DB *sql.DB
}

// InitSQLite opens a file database with foreign keys enforced.
func InitSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// одна запись за раз, pragma действует на соединение
	conn.SetMaxOpenConns(1)
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &SQLiteStore{DB: conn}, nil
}

func (s *SQLiteStore) Dialect() Dialect { return SQLite }

func (s *SQLiteStore) Close() { _ = s.DB.Close() }

func (s *SQLiteStore) Query(ctx context.Context, query string, args ...any) ([][]any, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classifySQLiteError(err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out [][]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i := range vals {
			vals[i] = normalizeValue(vals[i])
		}
		out = append(out, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, classifySQLiteError(err)
	}
	return out, nil
}

func (s *SQLiteStore) QueryRow(ctx context.Context, query string, args ...any) ([]any, error) {
	return firstRow(s.Query(ctx, query, args...))
}

func (s *SQLiteStore) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, classifySQLiteError(err)
	}
	return res.RowsAffected()
}

func classifySQLiteError(err error) error {
	var sErr *sqlite.Error
	if !errors.As(err, &sErr) {
		return err
	}
	code := sErr.Code()
	switch {
	case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE, code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return classified(ErrUniqueViolation, err)
	case code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return classified(ErrForeignKeyViolation, err)
	case code&0xff == sqlite3.SQLITE_CONSTRAINT:
		// без extended codes различаем по тексту
		msg := sErr.Error()
		if strings.Contains(msg, "UNIQUE") {
			return classified(ErrUniqueViolation, err)
		}
		if strings.Contains(msg, "FOREIGN KEY") {
			return classified(ErrForeignKeyViolation, err)
		}
	}
	return err
}
