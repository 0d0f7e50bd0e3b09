package store

import "fmt"

// Error wraps a failure from the underlying store transport. Callers that
// need to distinguish "not found" from a transport failure should rely on
// the ok return value of Get, not on this type — Error is only ever
// returned for genuine I/O/protocol failures.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}
