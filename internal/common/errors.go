package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound     = errors.New("requested resource not found")
	ErrUnauthorized = errors.New("unauthorized access")
	ErrForbidden    = errors.New("forbidden access")
	ErrBlocked      = errors.New("user is blocked")
	ErrBadRequest   = errors.New("bad request")
	ErrConflict     = errors.New("resource conflict") // e.g. duplicate in-progress attempt
	ErrValidation   = errors.New("validation failed")
	ErrLocked       = errors.New("test is locked because attempts already exist")
)

// PermissionError is returned when neither the default rule nor an explicit
// grant allows an operation. Permission is empty for owner-only operations.
type PermissionError struct {
	Permission string
	Message    string
}

func (e *PermissionError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = ErrForbidden.Error()
	}
	if e.Permission == "" {
		return msg
	}
	return fmt.Sprintf("%s (missing permission %s)", msg, e.Permission)
}

func (e *PermissionError) Unwrap() error { return ErrForbidden }

// MissingPermission returns the permission identifier carried by err, if any.
func MissingPermission(err error) string {
	var permErr *PermissionError
	if errors.As(err, &permErr) {
		return permErr.Permission
	}
	return ""
}

// IsUniqueViolation reports whether err is a Postgres unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrBlocked) {
		return http.StatusTeapot
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrValidation) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrConflict) || errors.Is(err, ErrLocked) {
		return http.StatusConflict
	}
	if IsUniqueViolation(err) {
		return http.StatusConflict
	}

	return http.StatusInternalServerError
}

// Errorf creates a new error with formatting, useful for wrapping.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
