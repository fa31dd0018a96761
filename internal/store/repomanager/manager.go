// Package repomanager picks the database backend for a DSN and vends the
// matching repositories and migrations.
package repomanager

import (
	"context"
	"database/sql"
	"strings"

	"github.com/dmitrijs2005/dataprocessor/internal/dbx"
	"github.com/dmitrijs2005/dataprocessor/internal/store/users"
	"github.com/pressly/goose/v3"
)

type RepositoryManager interface {
	// DriverName is the database/sql driver to open the DSN with.
	DriverName() string
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
}

// ForDSN returns the PostgreSQL manager for postgres:// and postgresql://
// URLs and the SQLite manager for everything else.
func ForDSN(dsn string) RepositoryManager {
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return &PostgresRepositoryManager{}
	}
	return &SQLiteRepositoryManager{}
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}
