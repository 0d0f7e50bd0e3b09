package replication

import (
	"context"
	"fmt"

	"github.com/arkeep-io/authcache/internal/model"
	"github.com/arkeep-io/authcache/internal/store"
	"go.uber.org/zap"
)

// readAccount fetches and decodes the account record at /uuid/{uuid}. A
// missing record is not an error — ok is false. A sdckey add that reached
// this uuid before its owning sdcperson add leaves an untyped placeholder
// (see key.go); readAccount merges that placeholder's keys into a fresh
// Account rather than erroring.
func (t *Transformer) readAccount(ctx context.Context, uuid string) (*model.Account, bool, error) {
	raw, ok, err := t.store.Get(ctx, model.UUIDKey(uuid))
	if err != nil || !ok {
		return nil, ok, err
	}
	rec, err := model.Decode([]byte(raw))
	if err == model.ErrUnknownKind {
		acc := &model.Account{UUID: uuid}
		acc.EnsureMaps()
		mergeKeysPlaceholder(raw, acc.Keys, acc.AccessKeys)
		return acc, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	acc, ok := rec.(*model.Account)
	if !ok {
		return nil, false, fmt.Errorf("replication: %s is not an account record", uuid)
	}
	return acc, true, nil
}

// putAccount handles sdcperson/add: write the account record, the
// login→uuid lookup, and set membership (spec.md §4.3 "put account"). It
// reads any existing placeholder record first, so a sdckey add that
// arrived earlier for the same uuid (see addKey) is merged in rather than
// clobbered.
func (t *Transformer) putAccount(ctx context.Context, batch *store.Batch, payload rawPayload) error {
	uuid := payload.first("uuid")
	login := payload.first("login")

	account, ok, err := t.readAccount(ctx, uuid)
	if err != nil {
		return err
	}
	if !ok {
		account = &model.Account{UUID: uuid}
	}
	account.EnsureMaps()
	account.Login = login
	account.ApprovedForProvisioning = payload.first("approved_for_provisioning") == "true"

	raw, err := model.Marshal(account)
	if err != nil {
		return err
	}
	batch.Set(model.UUIDKey(uuid), string(raw))
	batch.Set(model.AccountLoginKey(login), uuid)
	batch.SetAdd(model.SetAccountsKey(), uuid)
	return nil
}

// delAccount handles sdcperson/delete: destroy the account record and
// every sub-tree it owns wholesale (spec.md §4.3 "del account").
func (t *Transformer) delAccount(ctx context.Context, batch *store.Batch, payload rawPayload) error {
	uuid := payload.first("uuid")
	login := payload.first("login")
	if login == "" {
		if acc, ok, err := t.readAccount(ctx, uuid); err == nil && ok {
			login = acc.Login
		}
	}

	batch.Del(model.UUIDKey(uuid))
	if login != "" {
		batch.Del(model.AccountLoginKey(login))
	}
	batch.SetRemove(model.SetAccountsKey(), uuid)
	batch.Del(model.SetUsersKey(uuid))
	batch.Del(model.SetRolesKey(uuid))
	batch.Del(model.SetGroupsKey(uuid))
	return nil
}

// modAccount handles sdcperson/modify, applying each modification in order
// (spec.md §4.3 "mod account"). It reads the current record first so a
// login rename can delete the old /account/{login} mapping.
func (t *Transformer) modAccount(ctx context.Context, batch *store.Batch, ps postState, mods []modification) error {
	uuid := ps.str("uuid")
	acc, ok, err := t.readAccount(ctx, uuid)
	if err != nil {
		return err
	}
	if !ok {
		acc = &model.Account{UUID: uuid}
	}
	acc.EnsureMaps()
	oldLogin := acc.Login

	for _, m := range mods {
		switch m.Modification.Type {
		case "approved_for_provisioning":
			switch m.Operation {
			case "delete":
				acc.ApprovedForProvisioning = false
			case "replace", "add":
				acc.ApprovedForProvisioning = len(m.Modification.Vals) > 0 && m.Modification.Vals[0] == "true"
			}
		case "login":
			if m.Operation == "replace" && len(m.Modification.Vals) > 0 {
				acc.Login = m.Modification.Vals[0]
			}
		default:
			t.log.Debug("ignoring unsupported account modification", zap.String("attribute", m.Modification.Type))
		}
	}

	if acc.Login != oldLogin {
		if oldLogin != "" {
			batch.Del(model.AccountLoginKey(oldLogin))
		}
		if acc.Login != "" {
			batch.Set(model.AccountLoginKey(acc.Login), uuid)
		}
	}

	raw, err := model.Marshal(acc)
	if err != nil {
		return err
	}
	batch.Set(model.UUIDKey(uuid), string(raw))
	return nil
}
