package verify

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/arkeep-io/authcache/internal/credentials"
	"github.com/arkeep-io/authcache/internal/model"
	"github.com/arkeep-io/authcache/internal/sessiontoken"
	"github.com/arkeep-io/authcache/internal/sigv4"
	"github.com/arkeep-io/authcache/internal/storetest"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testAccessKeyID = "AKIAIOSFODNN7EXAMPL"

func fixedNow() time.Time { return time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC) }

func buildSignedRequest(t *testing.T, secret, accessKeyID string) IncomingRequest {
	t.Helper()
	timestamp := "20260731T120000Z"
	signedHeaders := []string{"host", "x-amz-date"}
	headers := map[string]string{
		"host":       "authcache.example.com",
		"x-amz-date": timestamp,
	}
	scope := sigv4.Scope{Date: "20260731", Region: "us-east-1", Service: "authcache"}
	sig := sigv4.Sign(secret, scope, timestamp, sigv4.Request{
		Method:        "GET",
		URI:           "/accounts/U",
		RawQuery:      "",
		Headers:       headers,
		SignedHeaders: signedHeaders,
		PayloadHash:   "UNSIGNED-PAYLOAD",
	})

	auth := fmt.Sprintf("AWS4-HMAC-SHA256 Credential=%s/20260731/us-east-1/authcache/aws4_request, SignedHeaders=host;x-amz-date, Signature=%s",
		accessKeyID, sig)
	headers["authorization"] = auth
	return IncomingRequest{
		Method:  "GET",
		URL:     "/accounts/U",
		Headers: headers,
		Query:   map[string]string{},
	}
}

func TestVerifyPermanentCredentialSuccess(t *testing.T) {
	ctx := context.Background()
	s := storetest.New()
	raw, err := model.Marshal(&model.Account{UUID: "U", Login: "admin", AccessKeys: map[string]string{testAccessKeyID: "topsecret"}})
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, model.UUIDKey("U"), string(raw)))
	require.NoError(t, s.Set(ctx, model.AccessKeyKey(testAccessKeyID), "U"))

	resolver := credentials.New(s, fixedNow)
	tokens := sessiontoken.NewValidator(nil)
	orch := New(resolver, tokens, nil, fixedNow)

	req := buildSignedRequest(t, "topsecret", testAccessKeyID)
	principal, err := orch.Verify(ctx, req)
	require.NoError(t, err)
	require.Equal(t, "U", principal.PrincipalUUID)
	require.False(t, principal.IsTemporaryCredential)
}

func TestVerifyRejectsBadSignature(t *testing.T) {
	ctx := context.Background()
	s := storetest.New()
	raw, _ := model.Marshal(&model.Account{UUID: "U", Login: "admin", AccessKeys: map[string]string{testAccessKeyID: "topsecret"}})
	require.NoError(t, s.Set(ctx, model.UUIDKey("U"), string(raw)))
	require.NoError(t, s.Set(ctx, model.AccessKeyKey(testAccessKeyID), "U"))

	resolver := credentials.New(s, fixedNow)
	tokens := sessiontoken.NewValidator(nil)
	orch := New(resolver, tokens, nil, fixedNow)

	req := buildSignedRequest(t, "wrong-secret", testAccessKeyID)
	_, err := orch.Verify(ctx, req)
	require.ErrorIs(t, err, ErrSignatureMismatch)
}

// Scenario 6 / P8: a temp-looking access key id without a session token is
// rejected regardless of signature validity.
func TestVerifyRejectsTemporaryAccessKeyWithoutSessionToken(t *testing.T) {
	ctx := context.Background()
	s := storetest.New()
	resolver := credentials.New(s, fixedNow)
	tokens := sessiontoken.NewValidator(nil)
	orch := New(resolver, tokens, nil, fixedNow)

	req := buildSignedRequest(t, "irrelevant", "MSAR0123456789ABCD")
	_, err := orch.Verify(ctx, req)
	require.ErrorIs(t, err, ErrTempCredentialNoToken)
}

func TestVerifyTemporaryCredentialSuccess(t *testing.T) {
	ctx := context.Background()
	s := storetest.New()
	now := fixedNow()
	// The session token validator checks exp against the wall clock, not now.
	token := signTestToken(t, "U", time.Now())
	cred, _ := model.Marshal(&model.TempCredential{
		AccessKeyID:     "MSTS0123456789ABCD",
		SecretAccessKey: "tempsecret",
		UserUUID:        "U",
		SessionToken:    token,
		Expiration:      now.Add(time.Hour).Format(time.RFC3339),
	})
	require.NoError(t, s.Set(ctx, model.AccessKeyKey("MSTS0123456789ABCD"), string(cred)))

	resolver := credentials.New(s, func() time.Time { return now })
	tokens := sessiontoken.NewValidator(map[string]string{"key-1": "signing-secret"})
	orch := New(resolver, tokens, nil, func() time.Time { return now })

	req := buildSignedRequest(t, "tempsecret", "MSTS0123456789ABCD")
	req.Headers["x-amz-security-token"] = token

	principal, err := orch.Verify(ctx, req)
	require.NoError(t, err)
	require.True(t, principal.IsTemporaryCredential)
	require.Equal(t, "U", principal.PrincipalUUID)
}

func signTestToken(t *testing.T, uuid string, now time.Time) string {
	t.Helper()
	claims := sessiontoken.Claims{
		UUID: uuid,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now.Add(-time.Minute)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = "key-1"
	signed, err := token.SignedString([]byte("signing-secret"))
	require.NoError(t, err)
	return signed
}
