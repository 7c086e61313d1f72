package migrations

import (
	"errors"
	"fmt"
	"path/filepath"

	"RestQueryAPI/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// SourceURL builds the file:// source golang-migrate expects: an absolute
// path with forward slashes.
func SourceURL(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs migrations: %w", err)
	}
	return "file://" + filepath.ToSlash(abs), nil
}

// Run applies every pending up migration from dir to the PostgreSQL dsn.
func Run(dir, dsn string) error {
	src, err := SourceURL(dir)
	if err != nil {
		return err
	}
	m, err := migrate.New(src, dsn)
	if err != nil {
		return fmt.Errorf("migrate.New: %w", err)
	}
	m.Log = logAdapter{}

	err = m.Up()
	srcErr, dbErr := m.Close()
	if srcErr != nil || dbErr != nil {
		logger.Warn("migrate_close_failed", map[string]any{
			"source_error": fmt.Sprint(srcErr),
			"db_error":     fmt.Sprint(dbErr),
		})
	}
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("migrate_no_change", map[string]any{"source": src})
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	logger.Info("migrate_done", map[string]any{"source": src})
	return nil
}

type logAdapter struct{}

func (logAdapter) Printf(format string, v ...any) {
	logger.Debug("migrate", map[string]any{"line": fmt.Sprintf(format, v...)})
}

func (logAdapter) Verbose() bool { return false }
