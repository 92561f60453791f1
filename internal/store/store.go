// Package store implements persistence for users, carts, orders and profiles
// on top of gorm.
package store

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when no record matches the lookup key.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("duplicate record")
	// ErrConflict is returned when an optimistic revision check fails.
	ErrConflict = errors.New("revision conflict")
)

// translate maps gorm errors onto the store sentinels. The gorm.DB must be
// opened with TranslateError enabled for duplicate keys to be detected.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
