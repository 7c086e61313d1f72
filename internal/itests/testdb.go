package itests

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"RestQueryAPI/internal"
	"RestQueryAPI/internal/migrations"

	"github.com/jackc/pgx/v5"
)

const testDBName = "restquery_itest"

// SetupAndTeardownTestDB creates a scratch database next to baseDSN on a
// local server, migrates it and returns its DSN with a drop func.
func SetupAndTeardownTestDB(baseDSN string) (string, func() error, error) {
	if os.Getenv("APP_ENV") == "production" {
		return "", nil, errors.New("APP_ENV=production: aborting tests")
	}
	u, err := url.Parse(baseDSN)
	if err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
		return "", nil, fmt.Errorf("ITEST_POSTGRES_DSN must be a postgres:// URL")
	}
	if host := u.Hostname(); host != "localhost" && host != "127.0.0.1" {
		return "", nil, fmt.Errorf("refuse non-local host for tests: %s", host)
	}
	u.Path = "/postgres"
	admin := u.String()
	u.Path = "/" + testDBName
	testDSN := u.String()

	ident := pgx.Identifier{testDBName}.Sanitize()
	drop := func() error {
		return adminExec(admin,
			`SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = '`+testDBName+`' AND pid <> pg_backend_pid()`,
			`DROP DATABASE IF EXISTS `+ident)
	}
	// остатки прошлого упавшего прогона
	if err := drop(); err != nil {
		return "", nil, fmt.Errorf("reset %s: %w", testDBName, err)
	}
	if err := adminExec(admin, `CREATE DATABASE `+ident); err != nil {
		return "", nil, fmt.Errorf("create %s: %w", testDBName, err)
	}

	root, err := internal.FindRepoRoot()
	if err == nil {
		err = migrations.Run(filepath.Join(root, "migrations"), testDSN)
	}
	if err != nil {
		_ = drop()
		return "", nil, err
	}
	return testDSN, drop, nil
}

// adminExec runs statements one by one on the maintenance database.
func adminExec(dsn string, stmts ...string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)
	for _, s := range stmts {
		if _, err := conn.Exec(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
