package utils

import (
	"fmt"
	"net/http"
)

// StatusError is an error carrying the HTTP status a page should answer with.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Code: %d, Message: %s", e.Code, e.Message)
}

func New(code int, message string) error {
	return &StatusError{
		Code:    code,
		Message: message,
	}
}

func NotFound(message string) error { return New(http.StatusNotFound, message) }

func BadRequest(message string) error { return New(http.StatusBadRequest, message) }
