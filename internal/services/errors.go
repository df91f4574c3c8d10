package services

import (
	"errors"
	"fmt"

	"github.com/musui/musui-server/internal/model"
)

// storageErr classifies a store failure. Typed model errors pass through;
// anything else becomes model.ErrStorage tagged with the operation.
func storageErr(op string, err error) error {
	for _, typed := range []error{model.ErrNotFound, model.ErrValidation, model.ErrConflict, model.ErrNotConfigured, model.ErrUnauthenticated} {
		if errors.Is(err, typed) {
			return err
		}
	}
	return fmt.Errorf("%s: %w: %w", op, model.ErrStorage, err)
}
