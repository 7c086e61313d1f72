package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound            = errors.New("record not found")
	ErrUniqueViolation     = errors.New("unique constraint violation")
	ErrForeignKeyViolation = errors.New("foreign key constraint violation")
)

// Store is the storage surface the controllers run compiled SQL against.
// Rows are fully materialized: requests are small and request-scoped.
type Store interface {
	Query(ctx context.Context, sql string, args ...any) ([][]any, error)
	// QueryRow returns ErrNotFound when the query yields no rows.
	QueryRow(ctx context.Context, sql string, args ...any) ([]any, error)
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
	Dialect() Dialect
	Close()
}

func classified(kind error, err error) error {
	return fmt.Errorf("%w: %v", kind, err)
}

// normalizeValue приводит значения драйверов к JSON-friendly виду.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case [16]byte:
		return uuid.UUID(x).String()
	}
	return v
}

func firstRow(rows [][]any, err error) ([]any, error) {
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}
