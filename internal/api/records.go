package api

import (
	"context"

	"github.com/arkeep-io/authcache/internal/apierr"
	"github.com/arkeep-io/authcache/internal/model"
	"github.com/arkeep-io/authcache/internal/store"
)

// fetchRecord reads uuid's record and decodes it, translating store/decode
// failures into the apierr sum type the HTTP layer expects.
func fetchRecord(ctx context.Context, s store.Store, uuid string, notFound apierr.RestCode) (model.Record, error) {
	raw, ok, err := s.Get(ctx, model.UUIDKey(uuid))
	if err != nil {
		return nil, apierr.Wrap(apierr.RedisError, "store read failed", err)
	}
	if !ok {
		return nil, apierr.New(notFound, "no record with that uuid")
	}
	rec, err := model.Decode([]byte(raw))
	if err != nil {
		return nil, apierr.Wrap(apierr.RedisError, "decoding stored record failed", err)
	}
	return rec, nil
}

func fetchAccount(ctx context.Context, s store.Store, uuid string) (*model.Account, error) {
	rec, err := fetchRecord(ctx, s, uuid, apierr.AccountDoesNotExist)
	if err != nil {
		return nil, err
	}
	acc, ok := rec.(*model.Account)
	if !ok {
		return nil, apierr.New(apierr.AccountDoesNotExist, "uuid does not identify an account")
	}
	return acc, nil
}

func fetchUser(ctx context.Context, s store.Store, uuid string) (*model.User, error) {
	rec, err := fetchRecord(ctx, s, uuid, apierr.UserDoesNotExist)
	if err != nil {
		return nil, err
	}
	user, ok := rec.(*model.User)
	if !ok {
		return nil, apierr.New(apierr.UserDoesNotExist, "uuid does not identify a user")
	}
	return user, nil
}
