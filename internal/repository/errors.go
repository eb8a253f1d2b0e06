package repository

import (
	"errors"

	"gorm.io/gorm"
)

// isUniqueViolation reports whether err is a unique-constraint violation.
// Requires gorm.Config.TranslateError.
func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
