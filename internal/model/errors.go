package model

import "errors"

// ErrUnknownKind is returned by Decode when the "type" discriminator does
// not match any recognized record variant.
var ErrUnknownKind = errors.New("model: unknown record type")
