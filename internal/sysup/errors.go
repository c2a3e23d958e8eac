// Package sysup holds the error taxonomy of the extent update workflow and
// the process-wide version value reported by the status surface.
package sysup

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Kind classifies a failed update. Exactly one Kind is reported per
// invocation: the first failure wins.
type Kind int

const (
	KindUnknown Kind = iota
	KindRequestInvalid
	KindNotFound
	KindUnsupportedOperation
	KindRangeTooLarge
	KindQueryFailed
	KindNoExtentsMapped
	KindPersistenceFailure
)

var kindNames = map[Kind]string{
	KindUnknown:              "unknown",
	KindRequestInvalid:       "request invalid",
	KindNotFound:             "not found",
	KindUnsupportedOperation: "unsupported operation",
	KindRangeTooLarge:        "range too large",
	KindQueryFailed:          "query failed",
	KindNoExtentsMapped:      "no extents mapped",
	KindPersistenceFailure:   "persistence failure",
}

// kindErrno is the errno reported for each kind when the cause does not
// carry a more specific one.
var kindErrno = map[Kind]unix.Errno{
	KindUnknown:              unix.EIO,
	KindRequestInvalid:       unix.EINVAL,
	KindNotFound:             unix.ENOENT,
	KindUnsupportedOperation: unix.EOPNOTSUPP,
	KindRangeTooLarge:        unix.EFBIG,
	KindQueryFailed:          unix.EIO,
	KindNoExtentsMapped:      unix.EFAULT,
	KindPersistenceFailure:   unix.EIO,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a classified failure of one update step.
type Error struct {
	Kind Kind
	// Op names the step that failed, e.g. "open" or "persist result".
	Op  string
	Err error
}

// Sentinels for errors.Is comparisons. Only Kind is compared.
var (
	ErrRequestInvalid       = &Error{Kind: KindRequestInvalid}
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrUnsupportedOperation = &Error{Kind: KindUnsupportedOperation}
	ErrRangeTooLarge        = &Error{Kind: KindRangeTooLarge}
	ErrQueryFailed          = &Error{Kind: KindQueryFailed}
	ErrNoExtentsMapped      = &Error{Kind: KindNoExtentsMapped}
	ErrPersistenceFailure   = &Error{Kind: KindPersistenceFailure}
)

// NewError classifies err under kind for the named step.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a classified error from a format string.
func Errorf(kind Kind, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or
// KindUnknown if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Errno returns the errno that corresponds to err. Query failures keep the
// errno reported by the backend when there is one.
func Errno(err error) unix.Errno {
	if err == nil {
		return 0
	}
	kind := KindOf(err)
	if kind == KindQueryFailed {
		var errno unix.Errno
		if errors.As(err, &errno) && errno != 0 {
			return errno
		}
	}
	return kindErrno[kind]
}

// Code returns the negative status code reported to a trigger caller,
// or 0 when err is nil.
func Code(err error) int {
	return -int(Errno(err))
}
