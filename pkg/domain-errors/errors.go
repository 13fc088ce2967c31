// Package domainerrors defines the error taxonomy surfaced by tokengate
// services. Infrastructure layers return sentinel errors (pkg/platform/sentinel)
// and services translate them into coded domain errors here.
//
// The codes split along the lines that matter for callers:
//   - validation and not-found errors are terminal and never retried
//   - compliance violations are normal business outcomes, not system faults
//   - partial batch failures are reported as data, not thrown
//   - ledger errors are retried by scheduled sweeps, never by the caller
//   - degraded-dependency errors are absorbed by fallback ladders and should
//     not normally reach a caller at all
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error.
type Code string

const (
	CodeBadRequest          Code = "bad_request"
	CodeUnauthorized        Code = "unauthorized"
	CodeNotFound            Code = "not_found"
	CodeConflict            Code = "conflict"
	CodeComplianceViolation Code = "compliance_violation"
	CodePartialBatch        Code = "partial_batch"
	CodeLedger              Code = "ledger_error"
	CodeDegraded            Code = "dependency_degraded"
	CodeInternal            Code = "internal_error"
)

// Error carries a code, an operator-facing message, and an optional cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// CodeOf extracts the code from an error chain. Unknown errors map to
// CodeInternal so nothing leaks internals to a caller by accident.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HTTPStatus maps a code to its transport status.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeComplianceViolation:
		// Policy rejections are well-formed requests that the policy refuses.
		return http.StatusUnprocessableEntity
	case CodePartialBatch:
		return http.StatusMultiStatus
	case CodeLedger, CodeDegraded:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
