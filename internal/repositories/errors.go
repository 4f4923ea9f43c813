package repositories

import (
	"errors"

	"gorm.io/gorm"
)

// Storage-level sentinel errors. Services translate these into their own
// error vocabulary before they reach handlers.
var (
	// ErrActiveSessionExists is returned by SessionRepository.Create when the
	// user already has an in-progress session for the requested level.
	ErrActiveSessionExists = errors.New("an active session already exists for this user and level")
)

// IsNotFoundError reports whether err means the record does not exist.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
