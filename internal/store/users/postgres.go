package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/dataprocessor/internal/common"
	"github.com/dmitrijs2005/dataprocessor/internal/dbx"
	"github.com/dmitrijs2005/dataprocessor/internal/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, rec *models.UserRecord) (int64, error) {
	var (
		query string
		args  []any
	)

	if rec.ID == 0 {
		query = `INSERT INTO user_data (username, password, credit_card, ssn, created_at)
         VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`
		args = []any{rec.Username, rec.Password, rec.CreditCard, rec.SSN, rec.CreatedAt}
	} else {
		query = `INSERT INTO user_data (id, username, password, credit_card, ssn, created_at)
         VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`
		args = []any{rec.ID, rec.Username, rec.Password, rec.CreditCard, rec.SSN, rec.CreatedAt}
	}

	var id int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) Update(ctx context.Context, rec *models.UserRecord) error {
	query :=
		`UPDATE user_data SET username = $1, password = $2, credit_card = $3, ssn = $4
		 WHERE id = $5`

	res, err := r.db.ExecContext(ctx, query, rec.Username, rec.Password, rec.CreditCard, rec.SSN, rec.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.UserRecord, error) {
	query :=
		`SELECT id, COALESCE(username, ''), password, credit_card, ssn, created_at FROM user_data
		 WHERE id = $1`

	rec := &models.UserRecord{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID, &rec.Username, &rec.Password, &rec.CreditCard, &rec.SSN, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

func (r *PostgresRepository) DeleteByID(ctx context.Context, id int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_data WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
