package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ValidationError reports caller-supplied data that violates a field constraint.
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

// ConflictError reports a uniqueness violation.
type ConflictError struct {
	Err   error
	Field string
}

func NewConflictError(err error, field string) error {
	return &ConflictError{Err: err, Field: field}
}

func (err ConflictError) Error() string {
	if err.Err == nil {
		return "conflict"
	}
	return err.Err.Error()
}

func (err ConflictError) Unwrap() error { return err.Err }

// WriteError reports a failed write. Invalid is set when the request itself was malformed
// (e.g. an empty attendance batch) as opposed to a storage failure.
type WriteError struct {
	Err     error
	Invalid bool
}

func NewWriteError(err error) error {
	return &WriteError{Err: err}
}

func NewInvalidWriteError(err error) error {
	return &WriteError{Err: err, Invalid: true}
}

func (err WriteError) Error() string {
	if err.Err == nil {
		return "write failed"
	}
	return "write failed: " + err.Err.Error()
}

func (err WriteError) Unwrap() error { return err.Err }

// AuthorizationError is an access denial. It is resolved as a redirect by the callers.
type AuthorizationError struct {
	Reason        string
	Redirect      string
	Authenticated bool
}

func (err AuthorizationError) Error() string {
	return err.Reason
}

func IsValidation(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

func IsConflict(err error) bool {
	var cErr *ConflictError
	return errors.As(err, &cErr)
}

func IsWrite(err error) bool {
	var wErr *WriteError
	return errors.As(err, &wErr)
}

func IsAuthorization(err error) bool {
	var aErr *AuthorizationError
	return errors.As(err, &aErr)
}

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
