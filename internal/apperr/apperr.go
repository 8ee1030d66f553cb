// Package apperr defines the error vocabulary shared by the HTTP API and
// the realtime engine. Every failure a client can see maps to one of these
// codes; everything else is internal_error.
package apperr

import (
	"errors"
	"net/http"
)

const (
	CodeUnauthorized    = "unauthorized"
	CodeForbidden       = "forbidden"
	CodeBadRequest      = "bad_request"
	CodeTooManyRequests = "too_many_requests"
	CodeNotFound        = "not_found"
	CodeInternal        = "internal_error"
)

// Error carries a wire code plus a human-readable message. The message is
// safe to show to clients; internal detail stays in logs.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

func Unauthorized(message string) *Error {
	return &Error{Code: CodeUnauthorized, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Code: CodeForbidden, Message: message}
}

func BadRequest(message string) *Error {
	return &Error{Code: CodeBadRequest, Message: message}
}

func TooManyRequests(message string) *Error {
	return &Error{Code: CodeTooManyRequests, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message}
}

func Internal(message string) *Error {
	return &Error{Code: CodeInternal, Message: message}
}

// From extracts the *Error from an error chain. Unknown errors become
// internal_error with a generic message so dependency detail never leaks.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("internal error")
}

// HTTPStatus maps a code to its response status.
func HTTPStatus(code string) int {
	switch code {
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Response is the wire envelope for every error the API returns.
type Response struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e *Error) Response() Response {
	return Response{Error: e.Code, Message: e.Message}
}
