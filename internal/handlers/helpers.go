package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "tradebook/internal/errors"
	"tradebook/internal/logger"
	"tradebook/internal/uuid"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// MessageResponse is returned by endpoints without a resource body.
type MessageResponse struct {
	Message string `json:"message"`
}

// getUserID extracts the authenticated user ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (string, error) {
	userID := c.GetString("userID")
	if userID == "" {
		return "", apperrors.ErrUnauthorized
	}
	return userID, nil
}

// parsePathID reads a UUID path parameter.
func parsePathID(c *gin.Context, param string) (string, error) {
	id := c.Param(param)
	if !uuid.IsValid(id) {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+param)
	}
	return id, nil
}

// parseOptionalInt reads an integer query parameter within [lo, hi].
func parseOptionalInt(c *gin.Context, key string, lo, hi int) (*int, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput,
			key+" must be between "+strconv.Itoa(lo)+" and "+strconv.Itoa(hi))
	}
	return &n, nil
}

// parseOptionalBool reads a "true"/"false" query parameter.
func parseOptionalBool(c *gin.Context, key string) (*bool, error) {
	switch c.Query(key) {
	case "":
		return nil, nil
	case "true":
		b := true
		return &b, nil
	case "false":
		b := false
		return &b, nil
	default:
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, key+" must be 'true' or 'false'")
	}
}

// parseMonthYear reads the month and year filters shared by list endpoints.
func parseMonthYear(c *gin.Context) (month, year *int, err error) {
	if month, err = parseOptionalInt(c, "month", 1, 12); err != nil {
		return nil, nil, err
	}
	if year, err = parseOptionalInt(c, "year", 1900, 9999); err != nil {
		return nil, nil, err
	}
	return month, year, nil
}

// respondWithError writes a consistent JSON error response. Unexpected errors
// are logged and replaced with a generic internal server error.
func respondWithError(c *gin.Context, err error) {
	appErr, expected := apperrors.Resolve(err)
	if !expected {
		logger.Get().Errorw("request failed",
			"code", appErr.Code,
			"error", err.Error(),
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
		)
	}
	c.JSON(appErr.StatusCode, apperrors.Response{Error: appErr})
}
