package sessiontoken

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Validator verifies HS256 session tokens against a keyring of per-keyId
// secrets (spec.md §6: "Verification requires a secret-key configuration
// keyed by keyId").
type Validator struct {
	keyring map[string][]byte
}

// NewValidator builds a Validator from a keyId -> secret map.
func NewValidator(keyring map[string]string) *Validator {
	v := &Validator{keyring: make(map[string][]byte, len(keyring))}
	for k, s := range keyring {
		v.keyring[k] = []byte(s)
	}
	return v
}

// Validate parses and verifies raw, enforcing the 64 KiB size cap, the
// HS256 signing method, and exp/nbf (handled by the jwt library's default
// claim validation). It returns the extracted claims on success.
func (v *Validator) Validate(raw string) (*Claims, error) {
	if len(raw) > MaxTokenSize {
		return nil, ErrTooLarge
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, v.keyFunc, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !token.Valid {
		return nil, ErrInvalid
	}
	if claims.UUID == "" {
		return nil, fmt.Errorf("%w: missing uuid claim", ErrInvalid)
	}
	return claims, nil
}

func (v *Validator) keyFunc(token *jwt.Token) (any, error) {
	kid, _ := token.Header["kid"].(string)
	if kid == "" {
		return nil, fmt.Errorf("%w: token carries no kid", ErrUnknownKeyID)
	}
	secret, ok := v.keyring[kid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKeyID, kid)
	}
	return secret, nil
}
