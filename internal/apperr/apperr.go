// scholarship-system/internal/apperr/apperr.go

// Package apperr defines the error taxonomy shared by the core services.
// Handlers translate these into HTTP responses; the message always names the
// specific entity, sub-type or row involved.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

func NotFound(format string, args ...any) *Error {
	return &Error{Status: http.StatusNotFound, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return &Error{Status: http.StatusUnprocessableEntity, Message: fmt.Sprintf(format, args...)}
}

func Authorization(format string, args ...any) *Error {
	return &Error{Status: http.StatusForbidden, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Status: http.StatusConflict, Message: fmt.Sprintf(format, args...)}
}

// BatchImportError reports a batch-confirm transaction that failed partway.
// By the time it reaches the caller the batch has already been rolled back
// and marked failed.
type BatchImportError struct {
	BatchID uint
	Row     int
	Err     error
}

func (e *BatchImportError) Error() string {
	return fmt.Sprintf("batch import %d failed at row %d: %v", e.BatchID, e.Row, e.Err)
}

func (e *BatchImportError) Unwrap() error { return e.Err }

// HTTPStatus maps any error to the status code a handler should return.
func HTTPStatus(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status
	}
	var be *BatchImportError
	if errors.As(err, &be) {
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}
