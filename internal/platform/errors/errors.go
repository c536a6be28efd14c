// Package errors is the error taxonomy shared by every layer. Import it as perr
package errors

import (
	stderrs "errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies an error for callers and the wire. Values are stable, append only
type ErrorCode uint16

const (
	// ErrorCodeUnknown is for unclassified errors
	ErrorCodeUnknown ErrorCode = iota
	// ErrorCodePanic is for panics recovered by middleware
	ErrorCodePanic
	// ErrorCodeUnavailable is for a dependency that may recover on retry
	ErrorCodeUnavailable
	// ErrorCodeUnauthorized is for a missing or unknown session
	ErrorCodeUnauthorized
	// ErrorCodeInvalidArgument is for malformed path, query or document input
	ErrorCodeInvalidArgument
	// ErrorCodeValidation is for documents that parse but break a rule
	ErrorCodeValidation
	// ErrorCodeJSON is for bodies that do not decode
	ErrorCodeJSON
	// ErrorCodeNotFound is for missing resources
	ErrorCodeNotFound
	// ErrorCodeDuplicateKey is for a config name that is already taken
	ErrorCodeDuplicateKey
	// ErrorCodeDB is for any other database failure
	ErrorCodeDB
	// ErrorCodeTimeout is for work that outlived its deadline
	ErrorCodeTimeout
	// ErrorCodeServerBusy is for admission control rejections
	ErrorCodeServerBusy
	// ErrorCodeInvariant is for state that must exist but does not, like a row missing right after insert
	ErrorCodeInvariant
)

// config documents answer every client side mistake with 400, duplicates included
var statusOf = map[ErrorCode]int{
	ErrorCodeUnavailable:     http.StatusServiceUnavailable,
	ErrorCodeUnauthorized:    http.StatusUnauthorized,
	ErrorCodeInvalidArgument: http.StatusBadRequest,
	ErrorCodeValidation:      http.StatusBadRequest,
	ErrorCodeJSON:            http.StatusBadRequest,
	ErrorCodeDuplicateKey:    http.StatusBadRequest,
	ErrorCodeNotFound:        http.StatusNotFound,
}

// HTTPStatusCode maps a code to its status. Unlisted codes are 500
func HTTPStatusCode(c ErrorCode) int {
	if s, ok := statusOf[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// ErrNotFound is the sentinel store helpers return for zero matching rows
var ErrNotFound = New(ErrorCodeNotFound, "not found")

// Error carries a code, a human message, an optional more-info detail and the wrapped cause
type Error struct {
	orig   error
	msg    string
	detail string
	code   ErrorCode
}

// Wire is the error part of a JSON reply
type Wire struct {
	Code     ErrorCode `json:"code"`
	Message  string    `json:"message"`
	MoreInfo string    `json:"more-info,omitempty"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}
	return e.msg
}

// Unwrap returns the wrapped cause
func (e *Error) Unwrap() error { return e.orig }

// Code returns the error code
func (e *Error) Code() ErrorCode { return e.code }

// Message returns the message without the cause
func (e *Error) Message() string { return e.msg }

// Detail returns the more-info diagnostic
func (e *Error) Detail() string { return e.detail }

// ToWire converts e for the reply envelope
func (e *Error) ToWire() Wire { return Wire{Code: e.code, Message: e.msg, MoreInfo: e.detail} }

// WireFrom converts any error. Foreign errors are Unknown with their full text
func WireFrom(err error) Wire {
	if err == nil {
		return Wire{}
	}
	if e, ok := As(err); ok {
		return e.ToWire()
	}
	return Wire{Code: ErrorCodeUnknown, Message: err.Error()}
}

// As returns the outermost *Error in err's chain
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf returns the code of the outermost *Error, Unknown otherwise
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

// IsCode reports whether err carries code
func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code }

// HTTPStatus returns the status for any error
func HTTPStatus(err error) int { return HTTPStatusCode(CodeOf(err)) }

// WithDetail returns a copy of err with detail set. Foreign errors are wrapped as Unknown
func WithDetail(err error, detail string) error {
	if err == nil {
		return nil
	}
	if e, ok := As(err); ok {
		c := *e
		c.detail = detail
		return &c
	}
	return &Error{code: ErrorCodeUnknown, msg: err.Error(), detail: detail, orig: err}
}

// WithMessage returns a copy of err with msg replaced, keeping code, detail and cause
func WithMessage(err error, msg string) error {
	if err == nil {
		return nil
	}
	if e, ok := As(err); ok {
		c := *e
		c.msg = msg
		return &c
	}
	return &Error{code: ErrorCodeUnknown, msg: msg, orig: err}
}

// DetailOf returns err's more-info diagnostic or ""
func DetailOf(err error) string {
	if e, ok := As(err); ok {
		return e.detail
	}
	return ""
}

// New returns an *Error
func New(code ErrorCode, msg string) error { return &Error{code: code, msg: msg} }

// Newf returns an *Error with a formatted message
func Newf(code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...)}
}

// Wrap wraps orig with code and msg
func Wrap(orig error, code ErrorCode, msg string) error {
	return &Error{code: code, msg: msg, orig: orig}
}

// Wrapf wraps orig with code and a formatted message
func Wrapf(orig error, code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...), orig: orig}
}

// Validation returns a validation error whose detail is the full report
func Validation(msg, report string) error {
	return &Error{code: ErrorCodeValidation, msg: msg, detail: report}
}

// Constructors per code

func NotFoundf(format string, a ...any) error     { return Newf(ErrorCodeNotFound, format, a...) }
func InvalidArgf(format string, a ...any) error   { return Newf(ErrorCodeInvalidArgument, format, a...) }
func DuplicateKeyf(format string, a ...any) error { return Newf(ErrorCodeDuplicateKey, format, a...) }
func DBf(format string, a ...any) error           { return Newf(ErrorCodeDB, format, a...) }
func JSONErrf(format string, a ...any) error      { return Newf(ErrorCodeJSON, format, a...) }
func PanicErrf(format string, a ...any) error     { return Newf(ErrorCodePanic, format, a...) }
func Unauthorizedf(format string, a ...any) error { return Newf(ErrorCodeUnauthorized, format, a...) }
func Unavailablef(format string, a ...any) error  { return Newf(ErrorCodeUnavailable, format, a...) }
func Validationf(format string, a ...any) error   { return Newf(ErrorCodeValidation, format, a...) }
func Timeoutf(format string, a ...any) error      { return Newf(ErrorCodeTimeout, format, a...) }
func ServerBusyf(format string, a ...any) error   { return Newf(ErrorCodeServerBusy, format, a...) }
func Invariantf(format string, a ...any) error    { return Newf(ErrorCodeInvariant, format, a...) }
