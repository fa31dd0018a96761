package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/dataprocessor/internal/common"
	"github.com/dmitrijs2005/dataprocessor/internal/dbx"
	"github.com/dmitrijs2005/dataprocessor/internal/models"
)

// SQLiteRepository implements Repository over a DBTX (either *sql.DB or *sql.Tx).
// Timestamps are stored as RFC 3339 text in UTC.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, rec *models.UserRecord) (int64, error) {
	query := `INSERT INTO user_data (id, username, password, credit_card, ssn, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`

	var id any
	if rec.ID != 0 {
		id = rec.ID
	}

	res, err := r.db.ExecContext(ctx, query,
		id, rec.Username, rec.Password, rec.CreditCard, rec.SSN, fmtTime(rec.CreatedAt))
	if err != nil {
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}

	if rec.ID != 0 {
		return rec.ID, nil
	}

	newID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted id: %w", err)
	}
	return newID, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, rec *models.UserRecord) error {
	query := `UPDATE user_data SET username = ?, password = ?, credit_card = ?, ssn = ? WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query,
		rec.Username, rec.Password, rec.CreditCard, rec.SSN, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.UserRecord, error) {
	query := `SELECT id, COALESCE(username, ''), password, credit_card, ssn, created_at
			FROM user_data WHERE id = ?`

	rec := &models.UserRecord{}
	var createdAt string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID, &rec.Username, &rec.Password, &rec.CreditCard, &rec.SSN, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}

	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_data WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	return t, nil
}
