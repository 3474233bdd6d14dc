package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestCategoryOf(t *testing.T) {
	base := errors.New("disk quota exceeded")
	err := New(CategoryStorageFull, base)

	if got := CategoryOf(err); got != CategoryStorageFull {
		t.Fatalf("CategoryOf = %q, want %q", got, CategoryStorageFull)
	}

	// The category survives further wrapping.
	wrapped := fmt.Errorf("save output: %w", err)
	if got := CategoryOf(wrapped); got != CategoryStorageFull {
		t.Fatalf("CategoryOf(wrapped) = %q, want %q", got, CategoryStorageFull)
	}

	if got := CategoryOf(errors.New("plain")); got != CategoryUnknown {
		t.Fatalf("CategoryOf(plain) = %q, want %q", got, CategoryUnknown)
	}

	if !errors.Is(err, base) {
		t.Fatal("classified error does not unwrap to its cause")
	}
}

func TestNewNilYieldsNil(t *testing.T) {
	if err := New(CategoryNetwork, nil); err != nil {
		t.Fatalf("New(nil) = %v, want nil", err)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		category Category
		want     bool
	}{
		{CategoryStorageFull, true},
		{CategoryNetwork, true},
		{CategoryImageTooLarge, false},
		{CategoryExportFailed, false},
		{CategoryInvalidInput, false},
	}

	for _, tt := range tests {
		err := New(tt.category, errors.New("boom"))
		if got := IsRetryable(err); got != tt.want {
			t.Errorf("IsRetryable(%s) = %v, want %v", tt.category, got, tt.want)
		}
	}

	if IsRetryable(errors.New("plain")) {
		t.Fatal("IsRetryable(plain) = true")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		category Category
		want     int
	}{
		{CategoryInvalidInput, http.StatusBadRequest},
		{CategoryPermissionDenied, http.StatusForbidden},
		{CategoryNotFound, http.StatusNotFound},
		{CategoryImageTooLarge, http.StatusRequestEntityTooLarge},
		{CategoryStorageFull, http.StatusInsufficientStorage},
		{CategoryNetwork, http.StatusBadGateway},
		{CategoryExportFailed, http.StatusInternalServerError},
		{CategoryUnknown, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		err := New(tt.category, errors.New("boom"))
		if got := HTTPStatus(err); got != tt.want {
			t.Errorf("HTTPStatus(%s) = %d, want %d", tt.category, got, tt.want)
		}
	}

	if got := HTTPStatus(errors.New("plain")); got != http.StatusInternalServerError {
		t.Fatalf("HTTPStatus(plain) = %d", got)
	}
}
