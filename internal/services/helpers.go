package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "tradebook/internal/errors"
	"tradebook/internal/ledger"
)

// validationError converts a ledger field error into a VALIDATION_FAILED AppError.
func validationError(fe *ledger.FieldError) error {
	return apperrors.Validation(fe.Field, fe.Message)
}

// lookupError maps a gorm lookup failure to notFound, anything else to INTERNAL_ERROR.
func lookupError(err error, notFound *apperrors.AppError) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

// passThrough keeps AppErrors returned from inside a transaction and wraps anything else.
func passThrough(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}
