// Package response defines the uniform API envelope and the typed errors the
// business layer returns. Handlers pattern-match on *Error instead of relying
// on panics or a throw/return dual-mode helper.
package response

import (
	"net/http"
)

// Envelope is the uniform response body for every endpoint.
type Envelope struct {
	Ok      bool          `json:"ok"`
	Status  int           `json:"status"`
	Message string        `json:"message,omitempty"`
	Data    []interface{} `json:"data,omitempty"`
	Meta    *Meta         `json:"meta,omitempty"`
	Issues  []string      `json:"issues,omitempty"`
}

// Meta carries pagination metadata.
type Meta struct {
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	TotalPages int    `json:"totalPages"`
	Total      int    `json:"total"`
	Search     string `json:"search,omitempty"`
}

// Error is a typed, HTTP-shaped business error.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// NotFound builds a 404 error
func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Message: message}
}

// Conflict builds a 409 error
func Conflict(message string) *Error {
	return &Error{Status: http.StatusConflict, Message: message}
}

// BadRequest builds a 400 error
func BadRequest(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message}
}

// Timeout builds a 408 error
func Timeout(message string) *Error {
	return &Error{Status: http.StatusRequestTimeout, Message: message}
}

// Unauthorized builds a 401 error
func Unauthorized(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: message}
}

// Internal builds a 500 error
func Internal(message string) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: message}
}

// Success builds an ok envelope
func Success(status int, message string, data ...interface{}) Envelope {
	return Envelope{Ok: true, Status: status, Message: message, Data: data}
}

// FromError normalizes any error into an error envelope. Unexpected errors
// surface as a generic internal message; no driver detail leaks to the client.
func FromError(err error) Envelope {
	if apiErr, ok := err.(*Error); ok {
		return Envelope{Ok: false, Status: apiErr.Status, Message: apiErr.Message}
	}
	return Envelope{
		Ok:      false,
		Status:  http.StatusInternalServerError,
		Message: "Se produjo un error interno, inténtelo de nuevo más tarde.",
	}
}
