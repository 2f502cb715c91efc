package database

import (
	"errors"
	"strings"

	"github.com/lib/pq"
)

// SQLSTATE codes inspected by the repositories.
const (
	codeUndefinedColumn = pq.ErrorCode("42703")
	codeUniqueViolation = pq.ErrorCode("23505")
)

// IsUndefinedColumn reports whether err is a PostgreSQL undefined_column error naming column.
// An empty column matches any undefined column.
func IsUndefinedColumn(err error, column string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != codeUndefinedColumn {
		return false
	}
	if column == "" {
		return true
	}
	return strings.Contains(pqErr.Message, `"`+column+`"`)
}

// IsUniqueViolation reports whether err is a unique violation, optionally for a named constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != codeUniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
