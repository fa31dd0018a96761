// Package users holds the dialect-specific repositories for the user_data
// table. Repositories write exactly what they are given; hashing of sensitive
// columns is the job of the store that calls them.
package users

import (
	"context"

	"github.com/dmitrijs2005/dataprocessor/internal/models"
)

// Repository is the row-level access used by the store.
type Repository interface {
	// Insert writes rec and returns its id. A zero rec.ID lets the database
	// assign one.
	Insert(ctx context.Context, rec *models.UserRecord) (int64, error)

	// Update rewrites username and the sensitive columns of the row with
	// rec.ID. It returns common.ErrorNotFound when no row matches.
	Update(ctx context.Context, rec *models.UserRecord) error

	// GetByID returns the row or common.ErrorNotFound.
	GetByID(ctx context.Context, id int64) (*models.UserRecord, error)

	// DeleteByID removes the row and reports how many rows went away.
	DeleteByID(ctx context.Context, id int64) (int64, error)
}
