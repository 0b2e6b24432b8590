// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the auth
// core and the handlers to distinguish between different failure scenarios
// without inspecting driver errors themselves.
package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// mysqlDuplicateEntry is the server error number for a unique key violation.
const mysqlDuplicateEntry = 1062

// DuplicateError reports a unique constraint violation. Field names the
// violated column ("username", "email", ...) when it can be derived from the
// key name, otherwise it is empty.
type DuplicateError struct {
	Field string
	Err   error
}

func (e *DuplicateError) Error() string {
	if e.Field == "" {
		return "duplicate entry"
	}
	return fmt.Sprintf("duplicate %s", e.Field)
}

func (e *DuplicateError) Unwrap() error { return e.Err }

// translate maps driver errors onto the package sentinels. sql.ErrNoRows
// becomes ErrNotFound and MySQL error 1062 becomes a *DuplicateError whose
// Field is guessed from the key named in the server message.
func translate(err error, fields ...string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
		// "Duplicate entry 'x' for key 'users.uq_users_email'"; the entry
		// itself is user input, so only the key part is inspected.
		key := strings.ToLower(me.Message)
		if i := strings.LastIndex(key, "for key"); i >= 0 {
			key = key[i:]
		}
		for _, f := range fields {
			if strings.Contains(key, f) {
				return &DuplicateError{Field: f, Err: err}
			}
		}
		return &DuplicateError{Err: err}
	}
	return err
}
