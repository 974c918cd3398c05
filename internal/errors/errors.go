// Package errors provides custom error types for the Tradebook API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import (
	"context"
	stderrors "errors"
	"net/http"
)

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
// Fields carries field-level messages for validation failures.
type AppError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Fields     map[string]string `json:"fields,omitempty"`
	StatusCode int               `json:"-"`
	Internal   error             `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target is an AppError with the same code, so that
// errors.Is(err, ErrPositionNotFound) matches copies made by Wrap/WithMessage.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		Fields:     sentinel.Fields,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		Fields:     sentinel.Fields,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Validation creates a VALIDATION_FAILED error carrying field -> message pairs.
// The first field's message becomes the top-level message.
func Validation(field, message string) *AppError {
	return &AppError{
		Code:       ErrValidation.Code,
		Message:    field + ": " + message,
		Fields:     map[string]string{field: message},
		StatusCode: ErrValidation.StatusCode,
	}
}

// Response is the JSON envelope of every error response.
type Response struct {
	Error *AppError `json:"error"`
}

// Resolve maps err to the AppError a client should see. Deadline errors
// become ErrTimeout; anything that is not an AppError becomes ErrInternalServer.
// expected is false when the cause should be logged.
func Resolve(err error) (appErr *AppError, expected bool) {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return Wrap(ErrTimeout, err), false
	}
	if stderrors.As(err, &appErr) {
		return appErr, appErr.Internal == nil
	}
	return Wrap(ErrInternalServer, err), false
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrValidation     = &AppError{Code: "VALIDATION_FAILED", Message: "Validation failed", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInvalidState   = &AppError{Code: "INVALID_STATE", Message: "Operation not allowed in the current state", StatusCode: http.StatusConflict}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
	ErrTimeout        = &AppError{Code: "REQUEST_TIMEOUT", Message: "The request took too long to complete", StatusCode: http.StatusGatewayTimeout}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Position errors.
var (
	ErrPositionNotFound      = &AppError{Code: "POSITION_NOT_FOUND", Message: "Position not found", StatusCode: http.StatusNotFound}
	ErrPositionAlreadyClosed = &AppError{Code: "POSITION_ALREADY_CLOSED", Message: "Position is already closed; edit it instead", StatusCode: http.StatusConflict}
	ErrPositionNotOpen       = &AppError{Code: "POSITION_NOT_OPEN", Message: "Only open positions accept a mark price", StatusCode: http.StatusConflict}
)

// Focus stock errors.
var (
	ErrFocusStockNotFound = &AppError{Code: "FOCUS_STOCK_NOT_FOUND", Message: "Focus stock not found", StatusCode: http.StatusNotFound}
	ErrTradeAlreadyTaken  = &AppError{Code: "TRADE_ALREADY_TAKEN", Message: "Focus stock has already been converted into a position", StatusCode: http.StatusConflict}
	ErrTradeNotTaken      = &AppError{Code: "TRADE_NOT_TAKEN", Message: "Focus stock has not been converted into a position", StatusCode: http.StatusConflict}
)

// Team errors.
var (
	ErrTeamNotFound    = &AppError{Code: "TEAM_NOT_FOUND", Message: "Team not found", StatusCode: http.StatusNotFound}
	ErrMemberNotFound  = &AppError{Code: "MEMBER_NOT_FOUND", Message: "Team member not found", StatusCode: http.StatusNotFound}
	ErrDuplicateMember = &AppError{Code: "DUPLICATE_MEMBER", Message: "User is already a member of this team", StatusCode: http.StatusConflict}
	ErrLastAdmin       = &AppError{Code: "LAST_ADMIN", Message: "A team must keep at least one active admin", StatusCode: http.StatusConflict}
)
