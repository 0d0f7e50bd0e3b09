package replication

import "errors"

// ErrUnsupportedOperation is returned when a changetype on a recognized
// objectclass has no defined handling (spec.md §4.3 error semantics). The
// driver treats this as fatal for the entry: it logs it and does not commit
// it or its change number. The driver does not stop: it goes on with the
// next entry, whose commit then records that later change number.
var ErrUnsupportedOperation = errors.New("replication: unsupported (objectclass, changetype) operation")
