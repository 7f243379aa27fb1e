package services

import (
	"fmt"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	// ErrForbidden marks wrong-role or non-owner access.
	ErrForbidden = errors.New("you are not allowed to access this resource")
	// ErrNotFound marks missing records and ids that do not belong to the given parent.
	ErrNotFound = errors.New("resource not found")
)

// ValidationError carries field-scoped messages keyed by input name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	for field, msg := range e.Fields {
		return fmt.Sprintf("validation failed: %s: %s", field, msg)
	}
	return "validation failed"
}

// NewValidationError builds a ValidationError with a single field message.
func NewValidationError(field, message string) error {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// BusinessRuleError is a legitimate attempt with a recoverable outcome, such as
// deleting a category that still has documents.
type BusinessRuleError struct {
	Message string
}

func (e *BusinessRuleError) Error() string { return e.Message }

func NewBusinessRuleError(format string, args ...interface{}) error {
	return &BusinessRuleError{Message: fmt.Sprintf(format, args...)}
}

type forbiddenError struct {
	msg string
}

func (e *forbiddenError) Error() string        { return e.msg }
func (e *forbiddenError) Is(target error) bool { return target == ErrForbidden }

// forbidden is ErrForbidden with a more specific message.
func forbidden(msg string) error {
	return &forbiddenError{msg: msg}
}

// IsForbidden reports whether err is an authorization failure.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsNotFound reports whether err is a not-found failure, including gorm's.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// AsValidation extracts a ValidationError from err.
func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	ok := errors.As(err, &v)
	return v, ok
}

// AsBusinessRule extracts a BusinessRuleError from err.
func AsBusinessRule(err error) (*BusinessRuleError, bool) {
	var b *BusinessRuleError
	ok := errors.As(err, &b)
	return b, ok
}

// notFoundOr maps gorm.ErrRecordNotFound to ErrNotFound and wraps anything else.
func notFoundOr(err error, action string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return errors.Wrap(err, action)
}
