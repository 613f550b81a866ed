// Package errors defines the sentinel error kinds shared by the engine,
// the executor and the HTTP layer, plus an AppError wrapper that carries a
// human-readable message and the HTTP status to report.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidInput covers control characters in text or terms and
	// malformed minus tokens in queries.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidDocumentID is returned by AddDocument for a negative or
	// already present id.
	ErrInvalidDocumentID = errors.New("invalid document id")
	// ErrDocumentNotFound is returned when an operation requires a live
	// document and the id is unknown.
	ErrDocumentNotFound = errors.New("document not found")
	ErrCacheMiss        = errors.New("cache miss")
	ErrUnavailable      = errors.New("dependency unavailable")
	ErrInternal         = errors.New("internal error")
	ErrTimeout          = errors.New("operation timed out")
)

// AppError wraps a sentinel with a message and the HTTP status to report.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an AppError wrapping sentinel.
func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Newf is New with a formatted message.
func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// Validation builds an ErrInvalidInput error reported as 400.
func Validation(format string, args ...any) *AppError {
	return Newf(ErrInvalidInput, http.StatusBadRequest, format, args...)
}

// InvalidID builds an ErrInvalidDocumentID error reported as 400.
func InvalidID(id int, reason string) *AppError {
	return Newf(ErrInvalidDocumentID, http.StatusBadRequest, "document id %d %s", id, reason)
}

// NotFound builds an ErrDocumentNotFound error reported as 404.
func NotFound(id int) *AppError {
	return Newf(ErrDocumentNotFound, http.StatusNotFound, "document id %d is not indexed", id)
}

// HTTPStatusCode maps err to a status code: the AppError code if present,
// else by sentinel, else 500.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidDocumentID):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnavailable), errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
