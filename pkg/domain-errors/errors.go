// Package domainerrors defines the error taxonomy shared by services and
// transport. Services return coded errors; the HTTP layer translates codes to
// status lines without inspecting error strings.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Code string

const (
	// CodeBadRequest covers malformed payloads that never reached validation.
	CodeBadRequest Code = "bad_request"
	// CodeValidation covers structurally sound requests that violate field rules.
	CodeValidation Code = "validation_failed"
	// CodePaymentFailed covers vendor calls that failed or returned non-success.
	CodePaymentFailed Code = "payment_failed"
	CodeNotFound      Code = "not_found"
	CodeConflict      Code = "conflict"
	CodeRateLimited   Code = "rate_limited"
	CodeInternal      Code = "internal_error"
)

// FieldViolation attributes a validation failure to a request field.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the coded error carried across layers. Fields is only populated for
// CodeValidation errors.
type Error struct {
	Code    Code
	Message string
	Fields  []FieldViolation
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with a caller-facing message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error, preserving the
// cause for errors.Is/As chains and server-side logs.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// NewValidation builds a CodeValidation error from field violations. The
// message summarizes the violated fields for log lines; handlers should render
// Fields, not Message.
func NewValidation(violations []FieldViolation) *Error {
	fields := make([]string, 0, len(violations))
	for _, v := range violations {
		fields = append(fields, v.Field)
	}
	return &Error{
		Code:    CodeValidation,
		Message: "invalid fields: " + strings.Join(fields, ", "),
		Fields:  violations,
	}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for uncoded
// errors so unexpected failures never leak detail to clients.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps codes to response status lines.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeValidation, CodePaymentFailed:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
