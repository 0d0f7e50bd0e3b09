package credentials

import (
	"context"
	"testing"
	"time"

	"github.com/arkeep-io/authcache/internal/model"
	"github.com/arkeep-io/authcache/internal/storetest"
	"github.com/stretchr/testify/require"
)

func putRecord(t *testing.T, ctx context.Context, s *storetest.Fake, key string, rec model.Record) {
	t.Helper()
	raw, err := model.Marshal(rec)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, key, string(raw)))
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestResolvePermanentCredential(t *testing.T) {
	ctx := context.Background()
	s := storetest.New()
	putRecord(t, ctx, s, model.UUIDKey("U"), &model.Account{
		UUID:       "U",
		Login:      "admin",
		AccessKeys: map[string]string{"AKIAEXAMPLE": "topsecret"},
	})
	require.NoError(t, s.Set(ctx, model.AccessKeyKey("AKIAEXAMPLE"), "U"))

	r := New(s, nil)
	res, err := r.Resolve(ctx, "AKIAEXAMPLE", "")
	require.NoError(t, err)
	require.Equal(t, "topsecret", res.Secret)
	require.False(t, res.IsTemporaryCredential)
	require.Equal(t, "U", res.PrincipalUUID)
}

func TestResolvePermanentUnknownAccessKey(t *testing.T) {
	ctx := context.Background()
	s := storetest.New()
	r := New(s, nil)

	_, err := r.Resolve(ctx, "AKIAUNKNOWN", "")
	require.ErrorIs(t, err, ErrInvalidAccessKey)
}

func TestResolveTemporaryCredentialSuccess(t *testing.T) {
	ctx := context.Background()
	s := storetest.New()
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	putRecord(t, ctx, s, model.AccessKeyKey("MSTSAAAA"), &model.TempCredential{
		AccessKeyID:     "MSTSAAAA",
		SecretAccessKey: "tempsecret",
		UserUUID:        "U",
		SessionToken:    "token-123",
		Expiration:      now.Add(time.Hour).Format(time.RFC3339),
	})

	r := New(s, fixedNow(now))
	res, err := r.Resolve(ctx, "MSTSAAAA", "token-123")
	require.NoError(t, err)
	require.True(t, res.IsTemporaryCredential)
	require.Equal(t, "tempsecret", res.Secret)
	require.Equal(t, "U", res.PrincipalUUID)
}

func TestResolveTemporaryCredentialExpired(t *testing.T) {
	ctx := context.Background()
	s := storetest.New()
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	putRecord(t, ctx, s, model.AccessKeyKey("MSARBBBB"), &model.TempCredential{
		AccessKeyID:     "MSARBBBB",
		SecretAccessKey: "tempsecret",
		UserUUID:        "U",
		SessionToken:    "token-123",
		Expiration:      now.Add(-time.Hour).Format(time.RFC3339),
	})

	r := New(s, fixedNow(now))
	_, err := r.Resolve(ctx, "MSARBBBB", "token-123")
	require.ErrorIs(t, err, ErrCredentialExpired)
}

func TestResolveTemporaryCredentialSessionTokenMismatch(t *testing.T) {
	ctx := context.Background()
	s := storetest.New()
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	putRecord(t, ctx, s, model.AccessKeyKey("MSTSCCCC"), &model.TempCredential{
		AccessKeyID:     "MSTSCCCC",
		SecretAccessKey: "tempsecret",
		UserUUID:        "U",
		SessionToken:    "token-123",
		Expiration:      now.Add(time.Hour).Format(time.RFC3339),
	})

	r := New(s, fixedNow(now))
	_, err := r.Resolve(ctx, "MSTSCCCC", "wrong-token")
	require.ErrorIs(t, err, ErrSessionTokenMismatch)
}

func TestIsTemporaryPrefixes(t *testing.T) {
	require.True(t, IsTemporary("MSTSabc"))
	require.True(t, IsTemporary("MSARabc"))
	require.False(t, IsTemporary("AKIAabc"))
}
