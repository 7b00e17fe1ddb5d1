// Package xerrors defines the error taxonomy used throughout the extfs
// engine: a small set of named kinds (the errno-flavored constants below)
// that every layer, from bitmap bounds checks up to the filesystem
// operations, returns instead of ad hoc error strings.
package xerrors

// Errno names one of the error kinds a filesystem operation can fail with.
// The set mirrors the taxonomy in the specification: IOError, NoSpace,
// Bounds, NotAllocated, TypeMismatch, NotFound, InvalidArgument.
type Errno string

const (
	EIO     = Errno("input/output error")
	ENOSPC  = Errno("no space left on device")
	ERANGE  = Errno("argument out of range")
	EIDRM   = Errno("identifier not allocated")
	EISDIR  = Errno("is a directory")
	ENOTDIR = Errno("not a directory")
	ENOENT  = Errno("no such file or directory")
	EINVAL  = Errno("invalid argument")
	ENOTEMPTY = Errno("directory not empty")
	EEXIST  = Errno("already exists")
)

func (e Errno) Error() string {
	return string(e)
}

// WithMessage attaches a human-readable detail to the errno, producing an
// FSError. The original errno is preserved and can still be matched with Is.
func (e Errno) WithMessage(message string) *FSError {
	return &FSError{
		errno:   e,
		message: message,
	}
}

// WrapError attaches an underlying error as the cause of this errno.
func (e Errno) WrapError(err error) *FSError {
	return &FSError{
		errno:   e,
		message: e.Error() + ": " + err.Error(),
		cause:   err,
	}
}
