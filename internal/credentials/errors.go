package credentials

import "errors"

var (
	ErrInvalidAccessKey    = errors.New("credentials: invalid access key")
	ErrUserNotFound        = errors.New("credentials: user not found")
	ErrCredentialExpired   = errors.New("credentials: credential expired")
	ErrSessionTokenMismatch = errors.New("credentials: session token mismatch")
)
