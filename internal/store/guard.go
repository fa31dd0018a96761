package store

import (
	"database/sql"

	"github.com/dmitrijs2005/dataprocessor/internal/cryptox"
	"github.com/dmitrijs2005/dataprocessor/internal/models"
)

// guard is the single place where sensitive columns are rewritten before a
// row reaches a repository. Both write paths of the store call it inside the
// transaction that performs the write.
type guard struct {
	protector *cryptox.Protector
}

// column leaves NULL and digest-shaped values alone and hashes anything else.
func (g guard) column(v sql.NullString) sql.NullString {
	if !v.Valid || cryptox.IsDigest(v.String) {
		return v
	}
	return g.protector.Protect(v.String)
}

func (g guard) onInsert(rec *models.UserRecord) {
	rec.Password = g.column(rec.Password)
	rec.CreditCard = g.column(rec.CreditCard)
	rec.SSN = g.column(rec.SSN)
}

// onUpdate merges patch into current. Sensitive values that are absent from
// the patch or equal to what is stored are carried over untouched.
func (g guard) onUpdate(current *models.UserRecord, patch models.UserPatch) *models.UserRecord {
	next := *current
	if patch.Username != nil {
		next.Username = *patch.Username
	}
	next.Password = g.changed(current.Password, patch.Password)
	next.CreditCard = g.changed(current.CreditCard, patch.CreditCard)
	next.SSN = g.changed(current.SSN, patch.SSN)
	return &next
}

func (g guard) changed(stored sql.NullString, v *sql.NullString) sql.NullString {
	if v == nil || *v == stored {
		return stored
	}
	return g.column(*v)
}
