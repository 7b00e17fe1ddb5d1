package xerrors

import "errors"

// FSError is a chainable error carrying one of the Errno kinds plus an
// optional message and an optional wrapped cause.
type FSError struct {
	errno   Errno
	message string
	cause   error
}

// New creates an FSError with the default message for the errno.
func New(errno Errno) *FSError {
	return &FSError{errno: errno, message: errno.Error()}
}

func (e *FSError) Error() string {
	if e.message != "" {
		return e.message
	}
	return e.errno.Error()
}

func (e *FSError) Errno() Errno {
	return e.errno
}

func (e *FSError) Unwrap() error {
	return e.cause
}

// WithMessage returns a new FSError with an additional detail appended to
// e's message, keeping the errno and recording e itself as the cause.
func (e *FSError) WithMessage(message string) *FSError {
	return &FSError{
		errno:   e.errno,
		message: e.Error() + ": " + message,
		cause:   e,
	}
}

// WrapError returns a copy of e with err recorded as the cause.
func (e *FSError) WrapError(err error) *FSError {
	return &FSError{
		errno:   e.errno,
		message: e.Error() + ": " + err.Error(),
		cause:   err,
	}
}

// Is reports whether err, or the first FSError found in its wrap chain, is an
// FSError carrying the given errno. It lets callers write
// `xerrors.Is(err, xerrors.ENOENT)` instead of a type switch.
func Is(err error, errno Errno) bool {
	var fsErr *FSError
	if !errors.As(err, &fsErr) {
		return false
	}
	return fsErr.errno == errno
}
