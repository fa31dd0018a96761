package users

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/dataprocessor/internal/common"
	"github.com/dmitrijs2005/dataprocessor/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE user_data (
  id INTEGER PRIMARY KEY,
  username TEXT,
  password TEXT,
  credit_card TEXT,
  ssn TEXT,
  created_at TEXT NOT NULL
);
`)
	require.NoError(t, err)
	return db
}

func TestSQLite_InsertAndGet(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	created := time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC)

	id, err := r.Insert(ctx, &models.UserRecord{
		ID:        7,
		Username:  "alice",
		Password:  models.Text("p"),
		CreatedAt: created,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 7, id)

	got, err := r.GetByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, models.Text("p"), got.Password)
	assert.False(t, got.CreditCard.Valid)
	assert.False(t, got.SSN.Valid)
	assert.True(t, created.Equal(got.CreatedAt))
}

func TestSQLite_InsertAssignsID(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	first, err := r.Insert(ctx, &models.UserRecord{Username: "a", CreatedAt: time.Now()})
	require.NoError(t, err)
	second, err := r.Insert(ctx, &models.UserRecord{Username: "b", CreatedAt: time.Now()})
	require.NoError(t, err)

	assert.NotZero(t, first)
	assert.Greater(t, second, first)
}

func TestSQLite_InsertDuplicateID(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	_, err := r.Insert(ctx, &models.UserRecord{ID: 1, CreatedAt: time.Now()})
	require.NoError(t, err)
	_, err = r.Insert(ctx, &models.UserRecord{ID: 1, CreatedAt: time.Now()})
	require.Error(t, err)
}

func TestSQLite_Update(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	_, err := r.Insert(ctx, &models.UserRecord{ID: 1, Username: "old", CreatedAt: time.Now()})
	require.NoError(t, err)

	require.NoError(t, r.Update(ctx, &models.UserRecord{ID: 1, Username: "new", SSN: models.Text("s")}))
	got, err := r.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Username)
	assert.Equal(t, models.Text("s"), got.SSN)

	err = r.Update(ctx, &models.UserRecord{ID: 99})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestSQLite_GetByID_NotFound(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	_, err := r.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestSQLite_GetByID_NullUsername(t *testing.T) {
	db := setupDB(t)
	_, err := db.Exec(`INSERT INTO user_data (id, created_at) VALUES (3, '2026-01-01T00:00:00Z')`)
	require.NoError(t, err)

	got, err := NewSQLiteRepository(db).GetByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Empty(t, got.Username)
}

func TestSQLite_GetByID_BadTimestamp(t *testing.T) {
	db := setupDB(t)
	_, err := db.Exec(`INSERT INTO user_data (id, created_at) VALUES (4, 'yesterday')`)
	require.NoError(t, err)

	_, err = NewSQLiteRepository(db).GetByID(context.Background(), 4)
	require.Error(t, err)
}

func TestSQLite_DeleteByID(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	_, err := r.Insert(ctx, &models.UserRecord{ID: 5, CreatedAt: time.Now()})
	require.NoError(t, err)

	n, err := r.DeleteByID(ctx, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = r.DeleteByID(ctx, 5)
	require.NoError(t, err, "deleting a missing id is not an error")
	assert.EqualValues(t, 0, n)
}
