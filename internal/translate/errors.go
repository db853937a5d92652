package translate

import (
	"errors"
	"fmt"

	"github.com/roach88/labsearch/internal/criteria"
)

// UnsupportedCriterionError reports a criterion kind, field or entity
// combination that has no translation.
type UnsupportedCriterionError struct {
	Kind   criteria.Kind
	Field  string
	Reason string
}

func (e *UnsupportedCriterionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("unsupported %s criterion on %q: %s", e.Kind, e.Field, e.Reason)
	}
	return fmt.Sprintf("unsupported %s criterion: %s", e.Kind, e.Reason)
}

// IllegalCriterionError reports a criterion that is internally inconsistent,
// such as a time zone on a DATE property or mixed id types.
type IllegalCriterionError struct {
	Field  string
	Reason string
}

func (e *IllegalCriterionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("illegal criterion on %q: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("illegal criterion: %s", e.Reason)
}

// UnsupportedIdentifierError reports an object id of unknown shape.
type UnsupportedIdentifierError struct {
	Type string
}

func (e *UnsupportedIdentifierError) Error() string {
	return fmt.Sprintf("unsupported object id type %s", e.Type)
}

// IsUnsupportedCriterion reports whether err is an UnsupportedCriterionError.
// Uses errors.As to handle wrapped errors.
func IsUnsupportedCriterion(err error) bool {
	var e *UnsupportedCriterionError
	return errors.As(err, &e)
}

// IsIllegalCriterion reports whether err is an IllegalCriterionError.
func IsIllegalCriterion(err error) bool {
	var e *IllegalCriterionError
	return errors.As(err, &e)
}

// IsUnsupportedIdentifier reports whether err is an UnsupportedIdentifierError.
func IsUnsupportedIdentifier(err error) bool {
	var e *UnsupportedIdentifierError
	return errors.As(err, &e)
}

// IsCriteriaError reports whether err is any of the criteria errors above,
// i.e. the request itself is at fault.
func IsCriteriaError(err error) bool {
	return IsUnsupportedCriterion(err) || IsIllegalCriterion(err) || IsUnsupportedIdentifier(err)
}

// Error codes for criteria errors, shared by the CLI and the HTTP API.
const (
	ErrCodeUnsupportedCriterion  = "E201"
	ErrCodeIllegalCriterion      = "E202"
	ErrCodeUnsupportedIdentifier = "E203"
)

// ErrorCode returns the code of a criteria error, or "" for other errors.
func ErrorCode(err error) string {
	switch {
	case IsUnsupportedCriterion(err):
		return ErrCodeUnsupportedCriterion
	case IsIllegalCriterion(err):
		return ErrCodeIllegalCriterion
	case IsUnsupportedIdentifier(err):
		return ErrCodeUnsupportedIdentifier
	}
	return ""
}
