package errors

import (
	"errors"
	"net/http"
)

// Kind classifies a business failure. The HTTP layer maps each kind to one status code.
type Kind int

const (
	// KindInternal is any failure not classified below.
	KindInternal Kind = iota
	// KindUnauthenticated is a missing, invalid or expired token.
	KindUnauthenticated
	// KindForbidden is a valid identity lacking the role, or an unactivated account.
	KindForbidden
	// KindNotFound is a missing record, or a failed account verification.
	KindNotFound
	// KindConflict is a uniqueness violation.
	KindConflict
	// KindUnauthorized is a wrong password on login.
	KindUnauthorized
	// KindInvalidInput is a malformed request body or query.
	KindInvalidInput
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "internal"
	}
}

// Error is a classified error carrying the message shown to callers.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports kind equality so sentinel comparisons like errors.Is(err, &Error{Kind: KindNotFound}) work.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// New creates a classified error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a classified error that keeps the underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Unauthenticated returns the error AccessGuard and refresh use for every token failure.
func Unauthenticated() *Error {
	return New(KindUnauthenticated, "Unauthorized")
}

// Forbidden returns a forbidden error with the given message.
func Forbidden(message string) *Error {
	return New(KindForbidden, message)
}

// NotFound returns a not found error with the given message.
func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

// Conflict returns a conflict error with the given message.
func Conflict(message string) *Error {
	return New(KindConflict, message)
}

// Unauthorized returns an unauthorized error with the given message.
func Unauthorized(message string) *Error {
	return New(KindUnauthorized, message)
}

// InvalidInput returns an invalid input error with the given message.
func InvalidInput(message string) *Error {
	return New(KindInvalidInput, message)
}

// KindOf returns the kind of the first *Error in err's chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// StatusCode maps a kind to its HTTP status.
func StatusCode(kind Kind) int {
	switch kind {
	case KindUnauthenticated, KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// ToErrorResponse converts any error into its response body. Messages of unclassified
// errors are never exposed.
func ToErrorResponse(err error) ErrorResponse {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return ErrorResponse{StatusCode: StatusCode(e.Kind), Message: e.Message}
	}
	return ErrorResponse{StatusCode: http.StatusInternalServerError, Message: "Internal server error"}
}
