// Package apperr defines the error taxonomy shared by the services and the
// HTTP layer. Every error a client can see is an *Error carrying a Kind (which
// decides the HTTP status) and a stable Code.
package apperr

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// Kind groups errors by how they are reported to the client.
type Kind string

const (
	KindAuth       Kind = "auth"
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindStorage    Kind = "storage"
	KindUpload     Kind = "upload"
	KindTimeout    Kind = "timeout"
	KindInternal   Kind = "internal"
	KindRateLimit  Kind = "rate_limit"
)

// Codes distinguish errors within a Kind.
const (
	CodeMissingToken       = "missing_token"
	CodeInvalidToken       = "invalid_token"
	CodeInvalidCredentials = "invalid_credentials"
	CodeForbidden          = "forbidden"

	CodeInvalidInput = "invalid_input"

	CodeCartNotFound    = "cart_not_found"
	CodeLineNotFound    = "line_not_found"
	CodeOrderNotFound   = "order_not_found"
	CodeUserNotFound    = "user_not_found"
	CodeProfileNotFound = "profile_not_found"

	CodeDuplicate        = "duplicate"
	CodeRevisionConflict = "revision_conflict"

	CodeUnavailable = "unavailable"

	CodeTooLarge        = "too_large"
	CodeUnsupportedType = "unsupported_type"
	CodeIOFailure       = "io_failure"
	CodeNoFile          = "no_file"

	CodeDeadlineExceeded = "deadline_exceeded"

	CodeInternal        = "internal"
	CodeTooManyRequests = "too_many_requests"
)

// FieldError is one violated constraint on one input field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Error is the application error type.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  []FieldError
	Err     error // underlying cause, logged but never sent to clients
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(": ")
	b.WriteString(e.Message)
	for _, f := range e.Fields {
		b.WriteString("; ")
		b.WriteString(f.Field)
		b.WriteString(" ")
		b.WriteString(f.Reason)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind and Code so that sentinel values work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// Status maps the error to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindAuth:
		if e.Code == CodeForbidden {
			return http.StatusForbidden
		}
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUpload:
		if e.Code == CodeIOFailure {
			return http.StatusInternalServerError
		}
		return http.StatusBadRequest
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Body is the JSON shape of an error sent to clients.
type Body struct {
	Kind    Kind         `json:"kind"`
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// Response is the JSON envelope of an error response.
type Response struct {
	Error Body `json:"error"`
}

// Response returns the client-facing form of e. The cause is never included.
func (e *Error) Response() Response {
	return Response{Error: Body{Kind: e.Kind, Code: e.Code, Message: e.Message, Fields: e.Fields}}
}

// Sentinels for errors.Is comparisons. Do not mutate.
var (
	ErrMissingToken       = &Error{Kind: KindAuth, Code: CodeMissingToken, Message: "missing or malformed Authorization header"}
	ErrInvalidToken       = &Error{Kind: KindAuth, Code: CodeInvalidToken, Message: "invalid or expired token"}
	ErrInvalidCredentials = &Error{Kind: KindAuth, Code: CodeInvalidCredentials, Message: "invalid email or password"}
	ErrForbidden          = &Error{Kind: KindAuth, Code: CodeForbidden, Message: "admin access required"}

	ErrCartNotFound    = &Error{Kind: KindNotFound, Code: CodeCartNotFound, Message: "cart not found"}
	ErrLineNotFound    = &Error{Kind: KindNotFound, Code: CodeLineNotFound, Message: "product not found in cart"}
	ErrOrderNotFound   = &Error{Kind: KindNotFound, Code: CodeOrderNotFound, Message: "order not found"}
	ErrUserNotFound    = &Error{Kind: KindNotFound, Code: CodeUserNotFound, Message: "user not found"}
	ErrProfileNotFound = &Error{Kind: KindNotFound, Code: CodeProfileNotFound, Message: "profile not found"}

	ErrRevisionConflict = &Error{Kind: KindConflict, Code: CodeRevisionConflict, Message: "resource was modified concurrently"}

	ErrTimeout = &Error{Kind: KindTimeout, Code: CodeDeadlineExceeded, Message: "request timed out"}

	ErrRateLimited = &Error{Kind: KindRateLimit, Code: CodeTooManyRequests, Message: "rate limit exceeded"}
)

// New builds an error of the given kind and code.
func New(kind Kind, code, message string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: cause}
}

// Wrap returns a copy of a sentinel carrying an underlying cause.
func Wrap(sentinel *Error, cause error) *Error {
	e := *sentinel
	e.Err = cause
	return &e
}

// Validation reports every violated field at once.
func Validation(fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Code: CodeInvalidInput, Message: "validation failed", Fields: fields}
}

// Conflict reports a uniqueness or revision conflict.
func Conflict(message string, cause error) *Error {
	return New(KindConflict, CodeDuplicate, message, cause)
}

// Storage reports a failure of the backing store. Context deadline errors
// are reported as timeouts instead.
func Storage(message string, cause error) *Error {
	if errors.Is(cause, context.DeadlineExceeded) {
		return Wrap(ErrTimeout, cause)
	}
	return New(KindStorage, CodeUnavailable, message, cause)
}

// Internal reports an unexpected server-side failure.
func Internal(message string, cause error) *Error {
	return New(KindInternal, CodeInternal, message, cause)
}

// Upload reports a file upload failure.
func Upload(code, message string, cause error) *Error {
	return New(KindUpload, code, message, cause)
}

// From extracts an *Error from an error chain.
func From(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
