package sessiontoken

import "errors"

var (
	ErrTooLarge     = errors.New("sessiontoken: token exceeds maximum size")
	ErrUnknownKeyID = errors.New("sessiontoken: unknown key id")
	ErrInvalid      = errors.New("sessiontoken: invalid token")
)
