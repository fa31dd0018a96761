// Package models holds the record types shared by the store and its callers.
package models

import (
	"database/sql"
	"time"
)

// UserRecord is one row of user_data.
//
// Password, CreditCard and SSN hold either NULL or a digest once the row has
// been written through the store; a caller may put raw values in them before
// an insert or update and the store replaces those with digests.
type UserRecord struct {
	ID         int64
	Username   string
	Password   sql.NullString
	CreditCard sql.NullString
	SSN        sql.NullString
	CreatedAt  time.Time
}

// UserPatch describes a partial update. Nil fields are left untouched.
type UserPatch struct {
	Username   *string
	Password   *sql.NullString
	CreditCard *sql.NullString
	SSN        *sql.NullString
}

// Text is a convenience for building patch and record values.
func Text(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}
