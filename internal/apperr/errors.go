package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for callers and for HTTP status mapping.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindValidationFailed
	KindRemoteUnavailable
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidationFailed:
		return "validation_failed"
	case KindRemoteUnavailable:
		return "remote_unavailable"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Error is the application error carrying a Kind, the failing operation and
// an optional underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", msg, e.Err)
	default:
		return msg
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match sentinels by Kind and Msg.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Msg == e.Msg && (t.Op == "" || t.Op == e.Op)
}

// New creates an error of the given kind.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap attaches kind and op to err. A nil err stays nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func NotFound(op, msg string) *Error { return New(KindNotFound, op, msg) }
func Validation(op, msg string) *Error { return New(KindValidationFailed, op, msg) }
func Unauthorized(op, msg string) *Error { return New(KindUnauthorized, op, msg) }
func RemoteUnavailable(op string, err error) error { return Wrap(KindRemoteUnavailable, op, err) }

// KindOf returns the Kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }
func IsValidation(err error) bool { return KindOf(err) == KindValidationFailed }
func IsRemoteUnavailable(err error) bool { return KindOf(err) == KindRemoteUnavailable }
func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }
