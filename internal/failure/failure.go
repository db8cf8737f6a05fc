package failure

import (
	"errors"
	"fmt"
	"io/fs"
)

// Kind classifies an operation failure
type Kind string

const (
	Validation       Kind = "validation"
	PermissionDenied Kind = "permission_denied"
	Filesystem       Kind = "filesystem"
	ProcessSignal    Kind = "process_signal"
)

// Error captures the failing operation together with its classification
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// E constructs an Error of the given kind
func E(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Invalid reports a syntactically bad name or address
func Invalid(op, format string, args ...any) error {
	return &Error{Kind: Validation, Op: op, Err: fmt.Errorf(format, args...)}
}

// FromIO classifies a filesystem error, mapping permission problems to PermissionDenied
func FromIO(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrPermission) {
		return &Error{Kind: PermissionDenied, Op: op, Err: err}
	}
	return &Error{Kind: Filesystem, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there is none
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
