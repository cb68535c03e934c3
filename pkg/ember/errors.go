package ember

import (
	"fmt"
	"strconv"
)

// StatusError is a pipeline failure that maps to an HTTP status. Resolver
// failures are the only fatal pipeline errors; everything downstream degrades
// with a warning instead.
type StatusError struct {
	Status int
	Reason string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%d %s", e.Status, e.Reason)
}

// Canonical pipeline errors. Their Reason strings double as the text/plain
// response bodies.
var (
	// ErrBadRequest is returned for paths containing a NUL byte.
	ErrBadRequest = &StatusError{Status: 400, Reason: "Bad Request"}

	// ErrForbidden is returned for traversal attempts, directories without
	// an index, and unreadable files.
	ErrForbidden = &StatusError{Status: 403, Reason: "Forbidden"}

	// ErrNotFound is returned for absent files.
	ErrNotFound = &StatusError{Status: 404, Reason: "Not Found"}

	// ErrInternalServer is returned by the transport adapter when a
	// handler panics; the core pipeline never produces it.
	ErrInternalServer = &StatusError{Status: 500, Reason: "Internal Server Error"}
)

// errorResponse builds the response envelope for a StatusError: the canonical
// reason phrase as a text/plain body with its exact Content-Length.
func errorResponse(e *StatusError) *Response {
	body := []byte(e.Reason)
	return &Response{
		Status: e.Status,
		Headers: []Header{
			{"Content-Length", strconv.Itoa(len(body))},
			{"Content-Type", "text/plain"},
		},
		ContentLength: int64(len(body)),
		Body:          newByteBody(body),
	}
}
