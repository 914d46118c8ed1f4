package persistence

import (
	"errors"
	"fmt"

	"github.com/erp/magento-connector/internal/domain/shared"
	"gorm.io/gorm"
)

// translateError maps GORM errors onto shared domain errors.
// It relies on gorm.Config.TranslateError being enabled.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", shared.ErrAlreadyExists, err)
	default:
		return err
	}
}
