// Package credentials implements the Credential Resolver (spec.md §4.6):
// routing an access key id to either the permanent per-user secret stored
// on the account/user record, or a temporary credential minted by an
// assume-role/get-session-token operation.
package credentials

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/arkeep-io/authcache/internal/model"
	"github.com/arkeep-io/authcache/internal/store"
)

// Temporary-credential access key id prefixes, spec.md §4.6.
const (
	prefixMSTS = "MSTS"
	prefixMSAR = "MSAR"
)

// IsTemporary reports whether accessKeyID identifies a temporary credential
// by its prefix, regardless of whether a session token was presented.
func IsTemporary(accessKeyID string) bool {
	return strings.HasPrefix(accessKeyID, prefixMSTS) || strings.HasPrefix(accessKeyID, prefixMSAR)
}

// Resolution is the outcome of resolving an access key to a secret and the
// principal it belongs to.
type Resolution struct {
	Secret                string
	User                  model.Record // *model.Account or *model.User
	UserUUID              string
	IsTemporaryCredential bool
	AssumedRole           *model.AssumedRole
	PrincipalUUID         string
}

// Resolver resolves access key ids against the cache.
type Resolver struct {
	store store.Store
	now   func() time.Time
}

// New builds a Resolver over s. now defaults to time.Now; tests may override.
func New(s store.Store, now func() time.Time) *Resolver {
	if now == nil {
		now = time.Now
	}
	return &Resolver{store: s, now: now}
}

// Resolve implements spec.md §4.6. presentedSessionToken is the token the
// caller supplied (may be empty for permanent credentials).
func (r *Resolver) Resolve(ctx context.Context, accessKeyID, presentedSessionToken string) (*Resolution, error) {
	if IsTemporary(accessKeyID) {
		return r.resolveTemporary(ctx, accessKeyID, presentedSessionToken)
	}
	return r.resolvePermanent(ctx, accessKeyID)
}

func (r *Resolver) resolveTemporary(ctx context.Context, accessKeyID, presentedSessionToken string) (*Resolution, error) {
	raw, ok, err := r.store.Get(ctx, model.AccessKeyKey(accessKeyID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidAccessKey
	}

	rec, err := model.Decode([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("credentials: decoding %s: %w", accessKeyID, err)
	}
	cred, ok := rec.(*model.TempCredential)
	if !ok {
		return nil, ErrInvalidAccessKey
	}

	if cred.Expiration != "" {
		expires, err := time.Parse(time.RFC3339, cred.Expiration)
		if err == nil && r.now().After(expires) {
			return nil, ErrCredentialExpired
		}
	}

	if subtle.ConstantTimeCompare([]byte(cred.SessionToken), []byte(presentedSessionToken)) != 1 {
		return nil, ErrSessionTokenMismatch
	}

	return &Resolution{
		Secret:                cred.SecretAccessKey,
		UserUUID:              cred.UserUUID,
		IsTemporaryCredential: true,
		AssumedRole:           cred.AssumedRole,
		PrincipalUUID:         cred.UserUUID,
	}, nil
}

func (r *Resolver) resolvePermanent(ctx context.Context, accessKeyID string) (*Resolution, error) {
	userUUID, ok, err := r.store.Get(ctx, model.AccessKeyKey(accessKeyID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidAccessKey
	}

	raw, ok, err := r.store.Get(ctx, model.UUIDKey(userUUID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUserNotFound
	}
	rec, err := model.Decode([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("credentials: decoding %s: %w", userUUID, err)
	}

	var secret string
	switch v := rec.(type) {
	case *model.Account:
		secret, ok = v.AccessKeys[accessKeyID]
	case *model.User:
		secret, ok = v.AccessKeys[accessKeyID]
	default:
		return nil, ErrUserNotFound
	}
	if !ok {
		return nil, ErrInvalidAccessKey
	}

	return &Resolution{
		Secret:        secret,
		User:          rec,
		UserUUID:      userUUID,
		PrincipalUUID: userUUID,
	}, nil
}
