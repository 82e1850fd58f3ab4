package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for callers and for HTTP status mapping.
type Kind string

const (
	KindInvalidInput          Kind = "invalid_input"
	KindInsufficientFunds     Kind = "insufficient_funds"
	KindNotFound              Kind = "not_found"
	KindAlreadyHandled        Kind = "already_handled"
	KindConversionUnavailable Kind = "conversion_unavailable"
	KindMisconfigured         Kind = "misconfigured"
	KindUnauthorized          Kind = "unauthorized"
	KindForbidden             Kind = "forbidden"
	KindUnavailable           Kind = "unavailable"
	KindInternal              Kind = "internal"
)

// Error is the error type returned by the chest, inventory and service packages.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind so sentinel values like ErrNotFound work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidInput          = &Error{Kind: KindInvalidInput}
	ErrInsufficientFunds     = &Error{Kind: KindInsufficientFunds}
	ErrNotFound              = &Error{Kind: KindNotFound}
	ErrAlreadyHandled        = &Error{Kind: KindAlreadyHandled}
	ErrConversionUnavailable = &Error{Kind: KindConversionUnavailable}
	ErrMisconfigured         = &Error{Kind: KindMisconfigured}
	ErrUnauthorized          = &Error{Kind: KindUnauthorized}
	ErrForbidden             = &Error{Kind: KindForbidden}
	ErrUnavailable           = &Error{Kind: KindUnavailable}
	ErrInternal              = &Error{Kind: KindInternal}
)

// New creates an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func InvalidInput(format string, args ...any) *Error {
	return New(KindInvalidInput, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error to the response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidInput, KindInsufficientFunds, KindAlreadyHandled, KindConversionUnavailable, KindMisconfigured:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage hides internal details from clients.
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindInternal {
		return "internal server error"
	}
	return e.Error()
}
