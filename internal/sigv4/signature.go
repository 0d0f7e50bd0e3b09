package sigv4

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Scope is a parsed credential scope: YYYYMMDD/region/service/aws4_request.
type Scope struct {
	Date    string
	Region  string
	Service string
}

func (s Scope) String() string {
	return strings.Join([]string{s.Date, s.Region, s.Service, "aws4_request"}, "/")
}

// StringToSign builds "AWS4-HMAC-SHA256\n" + timestamp + "\n" + scope + "\n"
// + hex(SHA256(canonicalRequest)) per spec.md §4.5.
func StringToSign(timestamp string, scope Scope, canonicalRequest string) string {
	sum := sha256.Sum256([]byte(canonicalRequest))
	return strings.Join([]string{
		"AWS4-HMAC-SHA256",
		timestamp,
		scope.String(),
		hex.EncodeToString(sum[:]),
	}, "\n")
}

// Sign computes the final hex signature given a secret key and a fully
// assembled request.
func Sign(secret string, scope Scope, timestamp string, r Request) string {
	canonical := CanonicalRequest(r)
	sts := StringToSign(timestamp, scope, canonical)
	key := SigningKey(secret, scope.Date, scope.Region, scope.Service)
	return hex.EncodeToString(hmacSHA256(key, []byte(sts)))
}
