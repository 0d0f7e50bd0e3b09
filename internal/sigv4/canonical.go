// Package sigv4 implements AWS SigV4 request canonicalization, signing-key
// derivation and signature computation, stdlib-only by design (see
// DESIGN.md): this is pure cryptographic plumbing with no natural home in
// any third-party library carried elsewhere in this module.
package sigv4

import (
	"sort"
	"strings"
)

// Request carries everything needed to build a canonical request (spec.md
// §4.5). Headers are case-insensitive; callers may pass them in any case.
type Request struct {
	Method        string
	URI           string
	RawQuery      string
	Headers       map[string]string
	SignedHeaders []string
	PayloadHash   string
}

// CanonicalRequest builds the canonical request string per spec.md §4.5
// steps 1-5.
func CanonicalRequest(r Request) string {
	var b strings.Builder
	b.WriteString(r.Method)
	b.WriteByte('\n')
	b.WriteString(canonicalURI(r.URI))
	b.WriteByte('\n')
	b.WriteString(canonicalQuery(r.RawQuery))
	b.WriteByte('\n')
	b.WriteString(canonicalHeaders(r.Headers, r.SignedHeaders))
	b.WriteByte('\n')
	b.WriteString(signedHeadersLine(r.SignedHeaders))
	b.WriteByte('\n')
	b.WriteString(r.PayloadHash)
	return b.String()
}

// canonicalURI percent-encodes every path segment per RFC 3986's unreserved
// set, additionally encoding !'()* to uppercase hex as the original signer
// does to defend against gateways that otherwise leave them raw.
func canonicalURI(uri string) string {
	if uri == "" {
		return "/"
	}
	segments := strings.Split(uri, "/")
	for i, seg := range segments {
		segments[i] = encodeURISegment(seg)
	}
	joined := strings.Join(segments, "/")
	if joined == "" {
		return "/"
	}
	return joined
}

func isUnreserved(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_' || c == '.' || c == '~':
		return true
	}
	return false
}

const extraEncoded = "!'()*"

func encodeURISegment(seg string) string {
	var b strings.Builder
	for i := 0; i < len(seg); i++ {
		c := seg[i]
		switch {
		case isUnreserved(c):
			b.WriteByte(c)
		case strings.IndexByte(extraEncoded, c) >= 0:
			writeHexByte(&b, c)
		case c == '%' && i+2 < len(seg) && isHex(seg[i+1]) && isHex(seg[i+2]):
			// Already percent-encoded by the caller; preserve as-is.
			b.WriteByte(c)
		default:
			writeHexByte(&b, c)
		}
	}
	return b.String()
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'F') || (c >= 'a' && c <= 'f')
}

const hexDigits = "0123456789ABCDEF"

func writeHexByte(b *strings.Builder, c byte) {
	b.WriteByte('%')
	b.WriteByte(hexDigits[c>>4])
	b.WriteByte(hexDigits[c&0x0f])
}

// canonicalQuery implements spec.md §4.5 step 3.
func canonicalQuery(raw string) string {
	if raw == "" {
		return ""
	}
	pairs := strings.Split(raw, "&")
	encoded := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		if pair == "" {
			continue
		}
		key, value := pair, ""
		if idx := strings.IndexByte(pair, '='); idx >= 0 {
			key, value = pair[:idx], pair[idx+1:]
		}
		encoded = append(encoded, encodeQueryComponent(key)+"="+encodeQueryComponent(value))
	}
	sort.Strings(encoded)
	return strings.Join(encoded, "&")
}

func encodeQueryComponent(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
		} else {
			writeHexByte(&b, c)
		}
	}
	return b.String()
}

// canonicalHeaders implements spec.md §4.5 step 4, including the
// manta-s3-content-length / manta-s3-content-md5 substitution rules.
func canonicalHeaders(headers map[string]string, signedHeaders []string) string {
	lower := make(map[string]string, len(headers))
	for k, v := range headers {
		lower[strings.ToLower(k)] = v
	}
	if v, ok := lower["manta-s3-content-length"]; ok {
		lower["content-length"] = v
	}
	if v, ok := lower["manta-s3-content-md5"]; ok {
		lower["content-md5"] = v
	}

	names := append([]string(nil), signedHeaders...)
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(normalizeHeaderValue(lower[name]))
		b.WriteByte('\n')
	}
	return b.String()
}

func normalizeHeaderValue(v string) string {
	fields := strings.Fields(v)
	return strings.Join(fields, " ")
}

func signedHeadersLine(signedHeaders []string) string {
	names := append([]string(nil), signedHeaders...)
	sort.Strings(names)
	return strings.Join(names, ";")
}
