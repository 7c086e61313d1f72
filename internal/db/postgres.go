package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	Pool *pgxpool.Pool
}

func InitPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect pgx: %w", err)
	}
	// Проверка подключения
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping pgx: %w", err)
	}
	return &PostgresStore{Pool: pool}, nil
}

func (s *PostgresStore) Dialect() Dialect { return Postgres }

func (s *PostgresStore) Close() { s.Pool.Close() }

func (s *PostgresStore) Query(ctx context.Context, sql string, args ...any) ([][]any, error) {
	rows, err := s.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, classifyPgError(err)
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i := range vals {
			vals[i] = normalizeValue(vals[i])
		}
		out = append(out, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyPgError(err)
	}
	return out, nil
}

func (s *PostgresStore) QueryRow(ctx context.Context, sql string, args ...any) ([]any, error) {
	return firstRow(s.Query(ctx, sql, args...))
}

func (s *PostgresStore) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	tag, err := s.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, classifyPgError(err)
	}
	return tag.RowsAffected(), nil
}

func classifyPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505":
		return classified(ErrUniqueViolation, err)
	case "23503":
		return classified(ErrForeignKeyViolation, err)
	}
	return err
}
