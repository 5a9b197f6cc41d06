// Package apperr provides the application error taxonomy shared by
// services and the HTTP boundary. Every domain failure is an *Error
// with a stable Kind; the boundary translates kinds to HTTP statuses.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindBadRequest
	KindNotFound
	KindBusinessRule
	KindDuplicate
	KindUnauthorized
)

// FieldError carries a per-field message for input validation failures.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the single error type crossing service boundaries.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound reports a missing resource. The message is deliberately
// uniform: a row that exists but belongs to another user must be
// indistinguishable from one that does not exist at all.
func NotFound() error {
	return &Error{Kind: KindNotFound, Message: "resource not found"}
}

func BadRequest(msg string) error {
	return &Error{Kind: KindBadRequest, Message: msg}
}

func BadRequestf(format string, args ...any) error {
	return &Error{Kind: KindBadRequest, Message: fmt.Sprintf(format, args...)}
}

func BusinessRule(msg string) error {
	return &Error{Kind: KindBusinessRule, Message: msg}
}

func BusinessRulef(format string, args ...any) error {
	return &Error{Kind: KindBusinessRule, Message: fmt.Sprintf(format, args...)}
}

func Duplicate(msg string) error {
	return &Error{Kind: KindDuplicate, Message: msg}
}

func Unauthorized(msg string) error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

// Validation reports request-level input problems with per-field detail.
func Validation(fields ...FieldError) error {
	return &Error{
		Kind:    KindValidation,
		Message: "one or more fields have validation errors",
		Fields:  fields,
	}
}

// Internal wraps an unexpected failure. The wrapped error stays
// available for logging but never reaches the caller verbatim.
func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf extracts the Kind from err, defaulting to KindInternal for
// errors outside the taxonomy.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// FieldsOf returns the field errors attached to err, if any.
func FieldsOf(err error) []FieldError {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

// HTTPStatus maps an error kind to its response status.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation, KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindBusinessRule:
		return http.StatusUnprocessableEntity
	case KindDuplicate:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Public returns the caller-visible message for err. Internal errors
// collapse to a generic message so raw details never leak.
func Public(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "internal server error"
}
