// Package verify implements the Verifier Orchestrator (spec.md §4.7): it
// parses a signed request, resolves the credential behind it, and confirms
// the request was actually signed with that credential's secret.
package verify

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/arkeep-io/authcache/internal/credentials"
	"github.com/arkeep-io/authcache/internal/metrics"
	"github.com/arkeep-io/authcache/internal/model"
	"github.com/arkeep-io/authcache/internal/sessiontoken"
	"github.com/arkeep-io/authcache/internal/sigv4"
	"go.uber.org/zap"
)

const minSessionTokenLen = 10

// Principal is the successful outcome of Verify (spec.md §4.7 step 8).
type Principal struct {
	User                  model.Record
	AccessKeyID           string
	IsTemporaryCredential bool
	AssumedRole           *model.AssumedRole
	PrincipalUUID         string
}

// Orchestrator wires credential resolution and session-token validation
// into the single-call verification entry point.
type Orchestrator struct {
	resolver *credentials.Resolver
	tokens   *sessiontoken.Validator
	log      *zap.Logger
	now      func() time.Time
}

// New builds an Orchestrator. now defaults to time.Now.
func New(resolver *credentials.Resolver, tokens *sessiontoken.Validator, log *zap.Logger, now func() time.Time) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{resolver: resolver, tokens: tokens, log: log.Named("verify"), now: now}
}

// Verify implements spec.md §4.7 steps 1-8, recording the
// authcache_verify_total/authcache_verify_duration_seconds metrics around
// every call regardless of outcome.
func (o *Orchestrator) Verify(ctx context.Context, req IncomingRequest) (*Principal, error) {
	start := o.now()
	principal, err := o.verify(ctx, req)
	metrics.VerifyDuration.Observe(o.now().Sub(start).Seconds())
	if err != nil {
		metrics.VerifyTotal.WithLabelValues("denied").Inc()
	} else {
		metrics.VerifyTotal.WithLabelValues("allowed").Inc()
	}
	return principal, err
}

func (o *Orchestrator) verify(ctx context.Context, req IncomingRequest) (*Principal, error) {
	authHeader := headerLookup(req.Headers, "authorization")
	auth, err := ParseAuthHeader(authHeader)
	if err != nil {
		return nil, err
	}

	sessionToken := ExtractSessionToken(req)
	isTemporaryAttempt := len(sessionToken) >= minSessionTokenLen

	if credentials.IsTemporary(auth.AccessKeyID) && !isTemporaryAttempt {
		return nil, ErrTempCredentialNoToken
	}

	var principalUUID string
	var assumedRole *model.AssumedRole
	var resolved *credentials.Resolution

	if isTemporaryAttempt {
		claims, err := o.tokens.Validate(sessionToken)
		if err != nil {
			return nil, err
		}
		resolved, err = o.resolver.Resolve(ctx, auth.AccessKeyID, sessionToken)
		if err != nil {
			return nil, err
		}
		if claims.UUID != resolved.UserUUID {
			o.log.Warn("session token uuid does not match resolved credential owner",
				zap.String("tokenUuid", claims.UUID), zap.String("credentialUuid", resolved.UserUUID))
		}
		principalUUID = resolved.PrincipalUUID
		assumedRole = resolved.AssumedRole
	} else {
		resolved, err = o.resolver.Resolve(ctx, auth.AccessKeyID, "")
		if err != nil {
			return nil, err
		}
		principalUUID = resolved.PrincipalUUID
	}

	timestampRaw := headerLookup(req.Headers, "x-amz-date")
	if timestampRaw == "" {
		timestampRaw = headerLookup(req.Headers, "date")
	}
	ts, err := ParseTimestamp(timestampRaw)
	if err != nil {
		return nil, err
	}
	if err := CheckSkew(ts, o.now()); err != nil {
		return nil, err
	}

	reconstructed := Reconstruct(req, isTemporaryAttempt)

	payloadHash := headerLookup(req.Headers, "x-amz-content-sha256")
	if payloadHash == "" {
		payloadHash = "UNSIGNED-PAYLOAD"
	}

	scope := sigv4.Scope{Date: auth.DateStamp, Region: auth.Region, Service: auth.Service}
	expected := sigv4.Sign(resolved.Secret, scope, timestampRaw, sigv4.Request{
		Method:        reconstructed.Method,
		URI:           reconstructed.URI,
		RawQuery:      reconstructed.RawQuery,
		Headers:       req.Headers,
		SignedHeaders: auth.SignedHeaders,
		PayloadHash:   payloadHash,
	})

	if subtle.ConstantTimeCompare([]byte(expected), []byte(auth.Signature)) != 1 {
		return nil, ErrSignatureMismatch
	}

	return &Principal{
		User:                  resolved.User,
		AccessKeyID:           auth.AccessKeyID,
		IsTemporaryCredential: isTemporaryAttempt,
		AssumedRole:           assumedRole,
		PrincipalUUID:         principalUUID,
	}, nil
}
