// Package apperr is the error taxonomy shared by services and handlers.
package apperr

import (
	"net/http"

	"github.com/pkg/errors"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindUpstream
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUpstream:
		return "upstream"
	case KindStorage:
		return "storage"
	default:
		return "internal"
	}
}

// ErrNotFound is returned by repositories for unknown ids.
var ErrNotFound = errors.New("record not found")

// Error carries a client-safe message; Err keeps the cause for logs.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) error {
	return &Error{Kind: KindValidation, Msg: msg}
}

func Validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: errors.Errorf(format, args...).Error()}
}

func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

// Upstream wraps a blob host failure. The message does not say whether
// the upload or the delete failed.
func Upstream(err error) error {
	return &Error{Kind: KindUpstream, Msg: "Image host request failed", Err: errors.WithStack(err)}
}

func Storage(err error, msg string) error {
	return &Error{Kind: KindStorage, Msg: msg, Err: errors.WithStack(err)}
}

// KindOf returns KindInternal for errors outside the taxonomy.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message is the text safe to show a client. Msg never carries the
// cause; errors outside the taxonomy get a generic text.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return "Internal Server Error"
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
