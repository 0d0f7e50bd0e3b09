package replication

import (
	"context"
	"fmt"

	"github.com/arkeep-io/authcache/internal/model"
	"github.com/arkeep-io/authcache/internal/store"
	"go.uber.org/zap"
)

// readUser fetches and decodes the sub-user record at /uuid/{uuid}, merging
// an untyped sdckey placeholder the same way readAccount does.
func (t *Transformer) readUser(ctx context.Context, uuid string) (*model.User, bool, error) {
	raw, ok, err := t.store.Get(ctx, model.UUIDKey(uuid))
	if err != nil || !ok {
		return nil, ok, err
	}
	rec, err := model.Decode([]byte(raw))
	if err == model.ErrUnknownKind {
		u := &model.User{UUID: uuid}
		u.EnsureMaps()
		mergeKeysPlaceholder(raw, u.Keys, u.AccessKeys)
		return u, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	u, ok := rec.(*model.User)
	if !ok {
		return nil, false, fmt.Errorf("replication: %s is not a user record", uuid)
	}
	return u, true, nil
}

// putSubUser handles "sdcaccountuser sdcperson"/add: write the sub-user
// record, its name mapping, and set membership.
func (t *Transformer) putSubUser(ctx context.Context, batch *store.Batch, payload rawPayload) error {
	uuid := payload.first("uuid")
	account := payload.first("account")
	login := payload.first("login")

	user, ok, err := t.readUser(ctx, uuid)
	if err != nil {
		return err
	}
	if !ok {
		user = &model.User{UUID: uuid}
	}
	user.EnsureMaps()
	user.Account = account
	user.Login = login

	if err := t.writeRecord(batch, model.UUIDKey(uuid), user); err != nil {
		return err
	}
	batch.Set(model.UserKey(account, login), uuid)
	batch.SetAdd(model.SetUsersKey(account), uuid)
	return nil
}

// delSubUser handles "sdcaccountuser sdcperson"/delete.
func (t *Transformer) delSubUser(ctx context.Context, batch *store.Batch, payload rawPayload) error {
	uuid := payload.first("uuid")
	account := payload.first("account")
	login := payload.first("login")
	if account == "" || login == "" {
		if u, ok, err := t.readUser(ctx, uuid); err == nil && ok {
			account, login = u.Account, u.Login
		}
	}

	batch.Del(model.UUIDKey(uuid))
	if account != "" && login != "" {
		batch.Del(model.UserKey(account, login))
	}
	if account != "" {
		batch.SetRemove(model.SetUsersKey(account), uuid)
	}
	return nil
}

// modSubUser handles "sdcaccountuser sdcperson"/modify: currently only a
// login rename is recognized; anything else is logged and ignored.
func (t *Transformer) modSubUser(ctx context.Context, batch *store.Batch, ps postState, mods []modification) error {
	uuid := ps.str("uuid")
	user, ok, err := t.readUser(ctx, uuid)
	if err != nil {
		return err
	}
	if !ok {
		user = &model.User{UUID: uuid}
	}
	user.EnsureMaps()
	if account := ps.str("account"); account != "" {
		user.Account = account
	}
	oldLogin := user.Login

	for _, m := range mods {
		switch m.Modification.Type {
		case "login":
			if m.Operation == "replace" && len(m.Modification.Vals) > 0 {
				user.Login = m.Modification.Vals[0]
			}
		default:
			t.log.Debug("ignoring unsupported sub-user modification", zap.String("attribute", m.Modification.Type))
		}
	}

	if user.Login != oldLogin && user.Account != "" {
		if oldLogin != "" {
			batch.Del(model.UserKey(user.Account, oldLogin))
		}
		if user.Login != "" {
			batch.Set(model.UserKey(user.Account, user.Login), uuid)
		}
	}

	return t.writeRecord(batch, model.UUIDKey(uuid), user)
}
