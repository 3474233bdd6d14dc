// Package apperr classifies failures into the small fixed taxonomy the API
// surfaces to clients. Errors are wrapped at async boundaries and mapped to
// HTTP statuses at the handler layer.
package apperr

import (
	"errors"
	"net/http"
)

// Category is a coarse failure class.
type Category string

const (
	CategoryStorageFull      Category = "storage_full"
	CategoryImageTooLarge    Category = "image_too_large"
	CategoryExportFailed     Category = "export_failed"
	CategoryPermissionDenied Category = "permission_denied"
	CategoryNetwork          Category = "network_error"
	CategoryNotFound         Category = "not_found"
	CategoryInvalidInput     Category = "invalid_input"
	CategoryUnknown          Category = "unknown"
)

// retryable marks the categories that are safe for a caller to retry as-is.
var retryable = map[Category]struct{}{
	CategoryStorageFull: {},
	CategoryNetwork:     {},
}

// Error carries a failure category alongside the wrapped cause.
type Error struct {
	Category Category
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Category)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the error category is safe to retry.
func (e *Error) Retryable() bool {
	_, ok := retryable[e.Category]
	return ok
}

// New wraps err with the given category. A nil err yields nil.
func New(category Category, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Category: category, Err: err}
}

// CategoryOf extracts the category from err, or CategoryUnknown when the
// error was never classified.
func CategoryOf(err error) Category {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Category
	}
	return CategoryUnknown
}

// IsRetryable reports whether err carries a retryable category.
func IsRetryable(err error) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Retryable()
	}
	return false
}

// HTTPStatus maps a classified error to the status code handlers respond with.
func HTTPStatus(err error) int {
	switch CategoryOf(err) {
	case CategoryInvalidInput:
		return http.StatusBadRequest
	case CategoryPermissionDenied:
		return http.StatusForbidden
	case CategoryNotFound:
		return http.StatusNotFound
	case CategoryImageTooLarge:
		return http.StatusRequestEntityTooLarge
	case CategoryStorageFull:
		return http.StatusInsufficientStorage
	case CategoryNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
