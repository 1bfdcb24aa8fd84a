package repository

import (
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when a referenced row does not exist. Callers use
// errors.Is to distinguish it from storage failures; a lookup error is never
// collapsed into a "not found".
var ErrNotFound = errors.New("not found")

// Tx is the unit-of-work handle shared by repositories that participate in
// the same transaction (request decision + permission grant).
type Tx interface {
	Commit() error
	Rollback() error
}

type sqlTx struct {
	tx *sqlx.Tx
}

func (t *sqlTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqlTx) Rollback() error {
	return t.tx.Rollback()
}

func sqlxTx(tx Tx) (*sqlx.Tx, error) {
	st, ok := tx.(*sqlTx)
	if !ok {
		return nil, fmt.Errorf("transaction does not belong to this store")
	}
	return st.tx, nil
}
