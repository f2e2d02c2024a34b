package chat

import "errors"

// Error kinds. Handlers map these onto reply statuses: validation and
// authorization failures go back to the requester verbatim, not-found is
// usually a silent no-op, and transient errors get a generic message.
var (
	ErrValidation = errors.New("validation")
	ErrNotAllowed = errors.New("not allowed")
	ErrNotFound   = errors.New("not found")
	ErrTransient  = errors.New("transient")
)

// Error is a kinded domain error. The message is safe to send to clients.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string {
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.kind
}

// Validation reports invalid client input.
func Validation(msg string) error {
	return &Error{kind: ErrValidation, msg: msg}
}

// NotAllowed reports an authorization failure.
func NotAllowed(msg string) error {
	return &Error{kind: ErrNotAllowed, msg: msg}
}

// NotFound reports a missing room, message or user.
func NotFound(msg string) error {
	return &Error{kind: ErrNotFound, msg: msg}
}

// Transient reports a store or infrastructure failure.
func Transient(msg string) error {
	return &Error{kind: ErrTransient, msg: msg}
}
