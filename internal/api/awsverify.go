package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/arkeep-io/authcache/internal/apierr"
	"github.com/arkeep-io/authcache/internal/credentials"
	"github.com/arkeep-io/authcache/internal/sessiontoken"
	"github.com/arkeep-io/authcache/internal/verify"
)

type awsVerifyHandler struct {
	verifier *verify.Orchestrator
	log      *zap.Logger
}

type verifyResponse struct {
	Valid                 bool   `json:"valid"`
	AccessKeyID           string `json:"accessKeyId"`
	UserUUID              string `json:"userUuid"`
	IsTemporaryCredential bool   `json:"isTemporaryCredential"`
}

// Verify implements POST /aws-verify?method=…&url=… (spec.md §6): the
// caller's headers/query carry the signed request to verify.
func (h *awsVerifyHandler) Verify(w http.ResponseWriter, r *http.Request) {
	headers := make(map[string]string, len(r.Header))
	for k := range r.Header {
		headers[k] = r.Header.Get(k)
	}

	q := r.URL.Query()
	query := map[string]string{
		"method":       q.Get("method"),
		"url":          q.Get("url"),
		"sessionToken": q.Get("sessionToken"),
	}

	req := verify.IncomingRequest{
		Method:  r.Method,
		URL:     r.URL.RequestURI(),
		Headers: headers,
		Query:   query,
	}

	principal, err := h.verifier.Verify(r.Context(), req)
	if err != nil {
		switch {
		case isInvalidSignatureClass(err):
			WriteError(w, h.log, apierr.New(apierr.InvalidSignature, "signature verification failed"))
		default:
			WriteError(w, h.log, apierr.Wrap(apierr.RedisError, "verification failed", err))
		}
		return
	}

	Ok(w, verifyResponse{
		Valid:                 true,
		AccessKeyID:           principal.AccessKeyID,
		UserUUID:              principal.PrincipalUUID,
		IsTemporaryCredential: principal.IsTemporaryCredential,
	})
}

// isInvalidSignatureClass collapses every security/malformed-input failure
// mode the orchestrator can return into the single InvalidSignature
// restCode the client sees (spec.md §7: never surface the detail).
func isInvalidSignatureClass(err error) bool {
	for _, target := range []error{
		verify.ErrMalformedHeader, verify.ErrTempCredentialNoToken, verify.ErrClockSkew, verify.ErrSignatureMismatch,
		credentials.ErrInvalidAccessKey, credentials.ErrUserNotFound, credentials.ErrCredentialExpired, credentials.ErrSessionTokenMismatch,
		sessiontoken.ErrTooLarge, sessiontoken.ErrUnknownKeyID, sessiontoken.ErrInvalid,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
