package replication

import (
	"context"
	"fmt"

	"github.com/arkeep-io/authcache/internal/model"
	"github.com/arkeep-io/authcache/internal/store"
	"go.uber.org/zap"
)

func (t *Transformer) readGroup(ctx context.Context, uuid string) (*model.Group, bool, error) {
	raw, ok, err := t.store.Get(ctx, model.UUIDKey(uuid))
	if err != nil || !ok {
		return nil, ok, err
	}
	rec, err := model.Decode([]byte(raw))
	if err != nil {
		return nil, false, err
	}
	group, ok := rec.(*model.Group)
	if !ok {
		return nil, false, fmt.Errorf("replication: %s is not a group record", uuid)
	}
	return group, true, nil
}

func (t *Transformer) addGroupToUser(ctx context.Context, batch *store.Batch, userUUID, groupUUID string) error {
	if userUUID == "" {
		return nil
	}
	user, ok, err := t.readUser(ctx, userUUID)
	if err != nil || !ok {
		return err
	}
	user.AddGroup(groupUUID)
	return t.writeRecord(batch, model.UUIDKey(userUUID), user)
}

func (t *Transformer) removeGroupFromUser(ctx context.Context, batch *store.Batch, userUUID, groupUUID string) error {
	if userUUID == "" {
		return nil
	}
	user, ok, err := t.readUser(ctx, userUUID)
	if err != nil || !ok {
		return err
	}
	user.RemoveGroup(groupUUID)
	return t.writeRecord(batch, model.UUIDKey(userUUID), user)
}

// putAccountGroup handles sdcaccountgroup/add: an account-level group
// conferring roles (via "memberrole") onto its members (spec.md §4.3).
func (t *Transformer) putAccountGroup(ctx context.Context, batch *store.Batch, payload rawPayload) error {
	uuid := payload.first("uuid")
	account := payload.first("account")
	name := payload.first("name")

	group := &model.Group{
		UUID:    uuid,
		Account: account,
		Name:    name,
		Roles:   append([]string(nil), payload.all("memberrole")...),
	}
	if err := t.writeRecord(batch, model.UUIDKey(uuid), group); err != nil {
		return err
	}
	batch.Set(model.GroupKey(account, name), uuid)
	batch.SetAdd(model.SetGroupsKey(account), uuid)

	for _, memberDN := range payload.all("uniquemember") {
		if err := t.addGroupToUser(ctx, batch, uuidFromDN(memberDN), uuid); err != nil {
			return err
		}
	}
	return nil
}

// delAccountGroup handles sdcaccountgroup/delete.
func (t *Transformer) delAccountGroup(ctx context.Context, batch *store.Batch, payload rawPayload) error {
	uuid := payload.first("uuid")
	account := payload.first("account")
	name := payload.first("name")
	if account == "" || name == "" {
		if group, ok, err := t.readGroup(ctx, uuid); err == nil && ok {
			account, name = group.Account, group.Name
		}
	}

	batch.Del(model.UUIDKey(uuid))
	if account != "" && name != "" {
		batch.Del(model.GroupKey(account, name))
	}
	if account != "" {
		batch.SetRemove(model.SetGroupsKey(account), uuid)
	}

	for _, memberDN := range payload.all("uniquemember") {
		if err := t.removeGroupFromUser(ctx, batch, uuidFromDN(memberDN), uuid); err != nil {
			return err
		}
	}
	return nil
}

// modAccountGroup handles sdcaccountgroup/modify: rename, memberrole
// add/remove, uniquemember add/remove.
func (t *Transformer) modAccountGroup(ctx context.Context, batch *store.Batch, ps postState, mods []modification) error {
	groupUUID := ps.str("uuid")
	group, ok, err := t.readGroup(ctx, groupUUID)
	if err != nil {
		return err
	}
	if !ok {
		group = &model.Group{UUID: groupUUID, Account: ps.str("account"), Name: ps.str("name")}
	}
	account := group.Account

	for _, m := range mods {
		switch m.Modification.Type {
		case "group":
			if m.Operation == "replace" && len(m.Modification.Vals) > 0 {
				oldName := group.Name
				newName := m.Modification.Vals[0]
				if oldName != "" {
					batch.Del(model.GroupKey(account, oldName))
				}
				group.Name = newName
				batch.Set(model.GroupKey(account, newName), groupUUID)
			}
		case "memberrole":
			switch m.Operation {
			case "add":
				for _, r := range m.Modification.Vals {
					group.AddRole(r)
				}
			case "delete":
				for _, r := range m.Modification.Vals {
					group.RemoveRole(r)
				}
			default:
				group.Roles = append([]string(nil), m.Modification.Vals...)
			}
		case "uniquemember":
			add := m.Operation == "add"
			for _, dn := range m.Modification.Vals {
				memberUUID := uuidFromDN(dn)
				if add {
					if err := t.addGroupToUser(ctx, batch, memberUUID, groupUUID); err != nil {
						return err
					}
				} else if err := t.removeGroupFromUser(ctx, batch, memberUUID, groupUUID); err != nil {
					return err
				}
			}
		default:
			t.log.Debug("ignoring unsupported account-group modification", zap.String("attribute", m.Modification.Type))
		}
	}

	return t.writeRecord(batch, model.UUIDKey(groupUUID), group)
}
