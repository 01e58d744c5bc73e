package repository

import (
	"errors"
	"fmt"

	"github.com/amirasaad/ledger/pkg/domain"
	"gorm.io/gorm"
)

// MapGormErrorToDomain translates gorm sentinel errors into the repository
// contract: missing rows become domain.ErrNotFound and unique violations
// domain.ErrAlreadyExists. Duplicate errors keep the driver error for logs.
// Anything else is returned unchanged.
func MapGormErrorToDomain(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", domain.ErrAlreadyExists, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("ledger row references a missing parent: %w", err)
	}
	return err
}

// WrapError runs a gorm operation and maps its error.
func WrapError(op func() error) error {
	return MapGormErrorToDomain(op())
}
