package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/cppla/aiblog/models"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique name, slug or username is already taken.
	ErrDuplicate = errors.New("duplicate record")
	// ErrAuthorNotFound is returned when a post or comment names a user that no longer exists.
	ErrAuthorNotFound = fmt.Errorf("author: %w", ErrNotFound)
)

// translate maps gorm errors onto the repository sentinels.
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

// requireUser fails with ErrAuthorNotFound unless user id exists.
func requireUser(tx *gorm.DB, id uint) error {
	var n int64
	if err := tx.Model(&models.User{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrAuthorNotFound
	}
	return nil
}
