// Package errors defines the JSON error envelope returned by every portal
// endpoint.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Common error codes.
const (
	CodeInternal       = "INTERNAL_ERROR"
	CodeNotFound       = "NOT_FOUND"
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeRateLimited    = "RATE_LIMITED"
	CodeUnavailable    = "SERVICE_UNAVAILABLE"
)

// HTTPError is an error that knows how it should be rendered to a client.
type HTTPError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

// New creates an HTTPError without a cause.
func New(status int, code, message string) *HTTPError {
	return &HTTPError{StatusCode: status, Code: code, Message: message}
}

// Wrap attaches a status and code to err. The cause is logged, never sent.
func Wrap(err error, status int, code, message string) *HTTPError {
	return &HTTPError{StatusCode: status, Code: code, Message: message, Err: err}
}

// Error implements the error interface
func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%d): %s: %v", e.Code, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, e.StatusCode, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// Body is the JSON envelope.
func (e *HTTPError) Body() gin.H {
	return gin.H{"error": e.Message, "code": e.Code}
}

// Abort writes err as the response and stops the handler chain. Errors that
// are not HTTPErrors become a generic 500 so internals never leak.
func Abort(c *gin.Context, err error) {
	var httpErr *HTTPError
	if !stderrors.As(err, &httpErr) {
		httpErr = New(http.StatusInternalServerError, CodeInternal, "Internal server error")
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(httpErr.StatusCode, httpErr.Body())
}
