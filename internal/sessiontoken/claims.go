// Package sessiontoken validates the opaque session tokens issued by the
// separate signing subsystem described in spec.md §6. It treats the token
// as opaque beyond the claims it needs to extract.
package sessiontoken

import "github.com/golang-jwt/jwt/v5"

// MaxTokenSize is the hard ceiling on an accepted session token, spec.md §6.
const MaxTokenSize = 64 * 1024

// Claims mirrors the minimum field set spec.md §6 names. Extra claims in
// the token are ignored.
type Claims struct {
	UUID         string `json:"uuid"`
	RoleArn      string `json:"roleArn,omitempty"`
	SessionName  string `json:"sessionName,omitempty"`
	TokenVersion int    `json:"tokenVersion,omitempty"`
	KeyID        string `json:"keyId,omitempty"`
	jwt.RegisteredClaims
}
