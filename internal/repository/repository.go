package repository

import (
	"errors"

	"github.com/earlypass/classpass-api/pkg/apperror"
	"gorm.io/gorm"
)

// translate maps gorm sentinel errors to the application error taxonomy.
// Requires the connection to be opened with TranslateError so driver
// unique-violation errors arrive as gorm.ErrDuplicatedKey.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.ErrDuplicateEntity
	}
	return err
}
