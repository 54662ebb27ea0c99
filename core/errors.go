package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError reports bad operator input: malformed mobile, duplicate, empty field,
// or a transition requested from the wrong state.
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
			return err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// AuthorizationError reports a wrong admin secret, wrong credentials or a session
// lacking the required role.
type AuthorizationError struct {
	msg string
}

func NewAuthorizationError(msg string) error {
	return &AuthorizationError{msg: msg}
}

func (err AuthorizationError) Error() string {
	return err.msg
}

// NotFoundError reports a record absent for a keyed operation.
type NotFoundError struct {
	Resource string
}

func NewNotFoundError(resource string) error {
	return &NotFoundError{Resource: resource}
}

func (err NotFoundError) Error() string {
	return err.Resource + " not found"
}

// TransportError reports a failed call to the backing store.
type TransportError struct {
	Op  string
	Err error
}

func NewTransportError(op string, err error) error {
	return &TransportError{Op: op, Err: err}
}

func (err TransportError) Error() string {
	return fmt.Sprintf("%s: %v", err.Op, err.Err)
}

func (err TransportError) Unwrap() error {
	return err.Err
}

// OperatorMessage renders any error returned by the services into the message shown
// to the operator.
func OperatorMessage(err error) string {
	if err == nil {
		return ""
	}
	var (
		vErr *ValidationError
		aErr *AuthorizationError
		nErr *NotFoundError
		tErr *TransportError
	)
	switch {
	case errors.As(err, &vErr):
		return vErr.Error()
	case errors.As(err, &aErr):
		return aErr.Error()
	case errors.As(err, &nErr):
		return nErr.Error()
	case errors.As(err, &tErr):
		return "Failed to " + tErr.Op
	default:
		return "Something went wrong"
	}
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
