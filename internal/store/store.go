// Package store owns the user_data table and guarantees that password,
// credit card and SSN values are only ever persisted as digests.
//
// Every insert and update goes through the store's guard, which replaces any
// non-digest sensitive value with its digest inside the write transaction.
// The schema adds database triggers that abort any write that still carries
// an unprotected value, so a path that skips the store cannot persist one
// either.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/dataprocessor/internal/common"
	"github.com/dmitrijs2005/dataprocessor/internal/cryptox"
	"github.com/dmitrijs2005/dataprocessor/internal/dbx"
	"github.com/dmitrijs2005/dataprocessor/internal/logging"
	"github.com/dmitrijs2005/dataprocessor/internal/models"
	"github.com/dmitrijs2005/dataprocessor/internal/store/repomanager"
)

const sqlitePragmas = "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"

type Store struct {
	db      *sql.DB
	manager repomanager.RepositoryManager
	guard   guard
	logger  logging.Logger
}

// New wraps an already migrated database handle.
func New(db *sql.DB, manager repomanager.RepositoryManager, protector *cryptox.Protector, logger logging.Logger) *Store {
	if protector == nil {
		protector = cryptox.NewProtector(nil)
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Store{db: db, manager: manager, guard: guard{protector: protector}, logger: logger}
}

// Open connects to dsn, creates the schema and enforcement triggers if they
// are missing, and returns a ready store. Any failure closes the handle and
// returns an error matching common.ErrConnectivity; the store must not be
// used in that case. Opening an initialised database again is safe.
func Open(ctx context.Context, dsn string, protector *cryptox.Protector, logger logging.Logger) (*Store, error) {
	manager := repomanager.ForDSN(dsn)

	source := dsn
	sqliteFile := ""
	if manager.DriverName() == "sqlite" {
		var err error
		source, sqliteFile, err = sqliteSource(dsn)
		if err != nil {
			return nil, fmt.Errorf("open store: %w: %w", common.ErrConnectivity, err)
		}
	}

	db, err := sql.Open(manager.DriverName(), source)
	if err != nil {
		return nil, fmt.Errorf("open store: %w: %w", common.ErrConnectivity, err)
	}

	if err := initialize(ctx, db, manager, sqliteFile); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open store: %w: %w", common.ErrConnectivity, err)
	}

	s := New(db, manager, protector, logger)
	s.logger.Debug(ctx, "store initialised", "driver", manager.DriverName())
	return s, nil
}

func initialize(ctx context.Context, db *sql.DB, manager repomanager.RepositoryManager, sqliteFile string) error {
	if err := db.PingContext(ctx); err != nil {
		return err
	}

	if err := manager.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if manager.DriverName() == "sqlite" {
		// one writer at a time; concurrent callers queue on the pool
		db.SetMaxOpenConns(1)
		if sqliteFile != "" {
			return ensureDBPermissions(sqliteFile)
		}
	}
	return nil
}

// sqliteSource turns a plain path into a modernc URI with the connection
// pragmas applied, creating the parent directory. URIs and :memory: are
// passed through.
func sqliteSource(dsn string) (source, file string, err error) {
	if strings.HasPrefix(dsn, "file:") || dsn == ":memory:" {
		return dsn, "", nil
	}
	if err := os.MkdirAll(filepath.Dir(dsn), 0o700); err != nil {
		return "", "", fmt.Errorf("create parent dir: %w", err)
	}
	return "file:" + dsn + "?" + sqlitePragmas, dsn, nil
}

func ensureDBPermissions(path string) error {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Chmod(p, 0o600); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("set permissions on %s: %w", filepath.Base(p), err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Insert stores rec, hashing sensitive values that are not digests yet, and
// returns the row as persisted. A zero ID is assigned by the database and a
// zero CreatedAt becomes the current time.
func (s *Store) Insert(ctx context.Context, rec models.UserRecord) (*models.UserRecord, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	var stored *models.UserRecord
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.manager.Users(tx)

		s.guard.onInsert(&rec)
		id, err := repo.Insert(ctx, &rec)
		if err != nil {
			return err
		}

		stored, err = repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}

	s.logger.Info(ctx, "record stored", "user_id", stored.ID)
	return stored, nil
}

// Update applies patch to the row with the given id. Sensitive values that
// are unchanged are not re-derived; new ones are hashed unless they already
// are digests. ID and CreatedAt never change.
func (s *Store) Update(ctx context.Context, id int64, patch models.UserPatch) (*models.UserRecord, error) {
	var updated *models.UserRecord
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.manager.Users(tx)

		current, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		next := s.guard.onUpdate(current, patch)
		if err := repo.Update(ctx, next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update record %d: %w", id, err)
	}

	s.logger.Info(ctx, "record updated", "user_id", id)
	return updated, nil
}

// FetchByID returns the row or an error matching common.ErrorNotFound.
func (s *Store) FetchByID(ctx context.Context, id int64) (*models.UserRecord, error) {
	var rec *models.UserRecord
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		rec, err = s.manager.Users(tx).GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetch record %d: %w", id, err)
	}

	s.logger.Debug(ctx, "record fetched", "user_id", id)
	return rec, nil
}

// DeleteByID removes the row and returns the number of rows deleted. Deleting
// an id that does not exist is not an error.
func (s *Store) DeleteByID(ctx context.Context, id int64) (int64, error) {
	var n int64
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		n, err = s.manager.Users(tx).DeleteByID(ctx, id)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("delete record %d: %w", id, err)
	}

	s.logger.Info(ctx, "record deleted", "user_id", id, "rows", n)
	return n, nil
}
