// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios without depending on database/sql directly.
package repository

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// MySQL server error numbers.
const (
	erDupEntry         = 1062 // ER_DUP_ENTRY
	erRowIsReferenced2 = 1451 // ER_ROW_IS_REFERENCED_2
)

// ErrNotFound is returned when the requested row does not exist.  Every
// repository translates sql.ErrNoRows into this value.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a unique key rejects an insert, such as a
// second admin with the same username.  Handlers should translate this
// into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == erDupEntry
}

// isReferenced reports whether a delete was blocked by a foreign key that
// still points at the row.
func isReferenced(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == erRowIsReferenced2
}
