package postgres

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"
)

// IsUniqueViolation reports whether err is a PostgreSQL unique_violation.
// When constraint is not empty the violated constraint must also match.
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if string(pqErr.Code) != pgerrcode.UniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// IsForeignKeyViolation reports whether err is a PostgreSQL foreign_key_violation
func IsForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pgerrcode.ForeignKeyViolation
}

// ErrNotFound is returned (wrapped) by stores when a row does not exist
var ErrNotFound = errors.New("not found")
