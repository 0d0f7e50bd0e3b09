package verify

import (
	"net/url"
	"regexp"
	"strings"
)

// IncomingRequest is what the caller hands the orchestrator: the request as
// actually received, plus whatever the original signer proxy embedded in
// the query string so the signed request can be reconstructed (spec.md
// §4.7 step 6).
type IncomingRequest struct {
	Method  string
	URL     string // path + "?" + query, as received
	Headers map[string]string
	Query   map[string]string // query.method, query.url, query.sessionToken
}

// Reconstructed is the method/uri/query triple to canonicalize.
type Reconstructed struct {
	Method   string
	URI      string
	RawQuery string
}

var sessionTokenParamRe = regexp.MustCompile(`(^|&)sessionToken=[^&]*&?`)

// Reconstruct implements spec.md §4.7 step 6: honor query.method/query.url
// proxy overrides, then, for the temporary-credential path, strip the
// sessionToken parameter the proxy appended after the client signed.
func Reconstruct(req IncomingRequest, stripSessionToken bool) Reconstructed {
	method := req.Method
	if m := req.Query["method"]; m != "" {
		method = m
	}

	signedURL := req.URL
	if u := req.Query["url"]; u != "" {
		if decoded, err := url.QueryUnescape(u); err == nil {
			signedURL = decoded
		} else {
			signedURL = u
		}
	}

	uri, rawQuery := signedURL, ""
	if idx := strings.IndexByte(signedURL, '?'); idx >= 0 {
		uri, rawQuery = signedURL[:idx], signedURL[idx+1:]
	}

	if stripSessionToken {
		rawQuery = stripSessionTokenParam(rawQuery)
	}

	return Reconstructed{Method: method, URI: uri, RawQuery: rawQuery}
}

func stripSessionTokenParam(rawQuery string) string {
	stripped := sessionTokenParamRe.ReplaceAllString(rawQuery, "$1")
	return strings.TrimSuffix(strings.TrimSuffix(stripped, "&"), "")
}

// ExtractSessionToken implements spec.md §4.7 step 2: header, then
// query.sessionToken, then an embedded sessionToken= parameter inside
// query.url.
func ExtractSessionToken(req IncomingRequest) string {
	if v := headerLookup(req.Headers, "x-amz-security-token"); v != "" {
		return v
	}
	if v := req.Query["sessionToken"]; v != "" {
		return v
	}
	if u := req.Query["url"]; u != "" {
		if decoded, err := url.QueryUnescape(u); err == nil {
			if idx := strings.Index(decoded, "sessionToken="); idx >= 0 {
				rest := decoded[idx+len("sessionToken="):]
				if amp := strings.IndexByte(rest, '&'); amp >= 0 {
					rest = rest[:amp]
				}
				return rest
			}
		}
	}
	return ""
}

func headerLookup(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
