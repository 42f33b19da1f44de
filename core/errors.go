package core

import (
	"net/http"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"message"`
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return "validation failed"
	}
	return err.Err.Error()
}

// NotFoundError is returned when a requested entity does not exist.
type NotFoundError struct {
	entity string
}

func NewNotFoundError(entity string) error {
	return &NotFoundError{entity: entity}
}

func (err NotFoundError) Error() string {
	return err.entity + " not found"
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

// ExternalError reports a failure of a third-party service (AI, email...) in user-facing terms.
type ExternalError struct {
	Status  int
	Message string
	Err     error
}

func NewExternalError(status int, msg string, err error) error {
	if status == 0 {
		status = http.StatusBadGateway
	}
	return &ExternalError{Status: status, Message: msg, Err: err}
}

func (err ExternalError) Error() string {
	if err.Err != nil {
		return err.Message + ": " + err.Err.Error()
	}
	return err.Message
}

func (err ExternalError) Unwrap() error { return err.Err }

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
