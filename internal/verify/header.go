package verify

import (
	"fmt"
	"regexp"
	"strings"
)

const authScheme = "AWS4-HMAC-SHA256 "

var (
	dateStampRe   = regexp.MustCompile(`^\d{8}$`)
	accessKeyIDRe = regexp.MustCompile(`^\w+$`)
)

// AuthHeader is the parsed Authorization header, spec.md §4.7 step 1.
type AuthHeader struct {
	AccessKeyID   string
	DateStamp     string
	Region        string
	Service       string
	RequestType   string
	SignedHeaders []string
	Signature     string
}

// ParseAuthHeader implements spec.md §4.7 step 1 exactly, rejecting on any
// malformed component.
func ParseAuthHeader(raw string) (*AuthHeader, error) {
	if !strings.HasPrefix(raw, authScheme) {
		return nil, fmt.Errorf("%w: missing %q prefix", ErrMalformedHeader, strings.TrimSpace(authScheme))
	}
	rest := raw[len(authScheme):]

	fields := map[string]string{}
	for _, part := range strings.Split(rest, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idx := strings.IndexByte(part, '=')
		if idx < 0 {
			return nil, fmt.Errorf("%w: field %q has no '='", ErrMalformedHeader, part)
		}
		key, value := part[:idx], part[idx+1:]
		fields[key] = value
	}

	credential, ok := fields["Credential"]
	if !ok {
		return nil, fmt.Errorf("%w: missing Credential", ErrMalformedHeader)
	}
	signedHeadersRaw, ok := fields["SignedHeaders"]
	if !ok {
		return nil, fmt.Errorf("%w: missing SignedHeaders", ErrMalformedHeader)
	}
	signature, ok := fields["Signature"]
	if !ok {
		return nil, fmt.Errorf("%w: missing Signature", ErrMalformedHeader)
	}

	parts := strings.Split(credential, "/")
	if len(parts) != 5 {
		return nil, fmt.Errorf("%w: credential scope must have 5 components", ErrMalformedHeader)
	}
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			return nil, fmt.Errorf("%w: empty credential component", ErrMalformedHeader)
		}
	}
	accessKeyID, dateStamp, region, service, requestType := parts[0], parts[1], parts[2], parts[3], parts[4]

	if !dateStampRe.MatchString(dateStamp) {
		return nil, fmt.Errorf("%w: bad date stamp %q", ErrMalformedHeader, dateStamp)
	}
	if requestType != "aws4_request" {
		return nil, fmt.Errorf("%w: bad request type %q", ErrMalformedHeader, requestType)
	}
	if !accessKeyIDRe.MatchString(accessKeyID) || len(accessKeyID) < 16 || len(accessKeyID) > 128 {
		return nil, fmt.Errorf("%w: bad access key id", ErrMalformedHeader)
	}

	signedHeaders := strings.Split(signedHeadersRaw, ";")

	return &AuthHeader{
		AccessKeyID:   accessKeyID,
		DateStamp:     dateStamp,
		Region:        region,
		Service:       service,
		RequestType:   requestType,
		SignedHeaders: signedHeaders,
		Signature:     signature,
	}, nil
}
