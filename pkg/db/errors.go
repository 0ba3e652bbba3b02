package db

import (
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// IsUniqueViolation reports whether err is a unique constraint violation on
// either Postgres or SQLite. When constraintName is provided, the helper also
// requires the constraint (or column list) to appear in the error message.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()

	var liteErr sqlite3.Error
	unique := strings.Contains(msg, "duplicate key value") ||
		(errors.As(err, &liteErr) && liteErr.ExtendedCode == sqlite3.ErrConstraintUnique) ||
		strings.Contains(msg, "UNIQUE constraint failed")
	if !unique {
		return false
	}
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return true
}
