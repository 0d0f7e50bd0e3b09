package directory

import "errors"

// ErrSearchInFlight is returned if a poll is attempted while a previous one
// from the same Poller has not yet completed. The driver never triggers
// this in normal operation since GetNext blocks until a poll resolves; it
// guards against a caller accidentally running two polls concurrently.
var ErrSearchInFlight = errors.New("directory: search already in flight")

// ErrClosed is returned by GetNext once Close has been called.
var ErrClosed = errors.New("directory: poller closed")
