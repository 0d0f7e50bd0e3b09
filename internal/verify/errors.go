package verify

import "errors"

// ErrMalformedHeader covers every Authorization-header parsing failure
// (spec.md §4.7 step 1): missing scheme, bad Credential shape, etc.
var ErrMalformedHeader = errors.New("verify: malformed authorization header")

// ErrTempCredentialNoToken is the security rule from spec.md §4.7 step 3 /
// §8 scenario 6: a temporary-looking access key id presented without a
// session token is rejected regardless of signature validity.
var ErrTempCredentialNoToken = errors.New("verify: temporary credentials require a session token")

// ErrClockSkew is returned when the request timestamp is more than 15
// minutes away from now (spec.md §4.7 step 5, P7).
var ErrClockSkew = errors.New("verify: timestamp outside the allowed skew window")

// ErrSignatureMismatch is returned when the recomputed signature does not
// match the presented one.
var ErrSignatureMismatch = errors.New("verify: signature mismatch")
