package respond

import (
	"io"
	"net/http"

	"github.com/wb-go/wbf/ginext"

	"photoflow/internal/apperr"
)

// Success represents a standard structure for successful responses.
type Success struct {
	Result interface{} `json:"result"`
}

// Error represents a standard structure for error responses. Category and
// Retryable let clients decide whether to offer a retry action.
type Error struct {
	Message   string          `json:"message"`
	Category  apperr.Category `json:"category"`
	Retryable bool            `json:"retryable"`
}

// Image streams image bytes directly from an io.Reader as the HTTP response
// with the given content type.
func Image(c *ginext.Context, status int, contentType string, reader io.Reader) {
	if contentType == "" {
		contentType = "image/jpeg"
	}
	c.DataFromReader(status, -1, contentType, reader, nil)
}

// JSON sends a JSON response with the specified HTTP status code and data.
func JSON(c *ginext.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// OK sends a 200 OK JSON response, wrapping the given result in a Success struct.
func OK(c *ginext.Context, result interface{}) {
	JSON(c, http.StatusOK, Success{Result: result})
}

// Created sends a 201 Created JSON response, wrapping the given result in a Success struct.
func Created(c *ginext.Context, result interface{}) {
	JSON(c, http.StatusCreated, Success{Result: result})
}

// Accepted sends a 202 Accepted JSON response for queued work.
func Accepted(c *ginext.Context, result interface{}) {
	JSON(c, http.StatusAccepted, Success{Result: result})
}

// Fail sends an error JSON response with the given HTTP status code.
func Fail(c *ginext.Context, status int, err error) {
	JSON(c, status, Error{
		Message:   err.Error(),
		Category:  apperr.CategoryOf(err),
		Retryable: apperr.IsRetryable(err),
	})
}

// Err classifies the error and responds with its mapped HTTP status.
func Err(c *ginext.Context, err error) {
	Fail(c, apperr.HTTPStatus(err), err)
}
