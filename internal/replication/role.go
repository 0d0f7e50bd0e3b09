package replication

import (
	"context"
	"fmt"
	"regexp"

	"github.com/arkeep-io/authcache/internal/model"
	"github.com/arkeep-io/authcache/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var uuidLike = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// inlinePolicyNamespace is a fixed namespace for deriving deterministic
// uuids from (account, policy document text) pairs, so re-processing the
// same changelog entry after a crash (spec.md §5 idempotence) creates the
// same Policy record instead of a duplicate.
var inlinePolicyNamespace = uuid.MustParse("6ba7b814-9dad-11d1-80b4-00c04fd430c8")

// policyDocumentsToUUIDs resolves a role's raw "policydocument" values to
// policy uuids, per SPEC_FULL.md's resolution of the role-policies Open
// Question: values that already look like a uuid are used as-is; anything
// else is treated as inline policy text and materialized as a same-named
// Policy record owned by account.
func (t *Transformer) policyDocumentsToUUIDs(ctx context.Context, batch *store.Batch, account string, docs []string) ([]string, error) {
	uuids := make([]string, 0, len(docs))
	for _, doc := range docs {
		if uuidLike.MatchString(doc) {
			uuids = append(uuids, doc)
			continue
		}
		id, err := t.ensureInlinePolicy(ctx, batch, account, doc)
		if err != nil {
			return nil, err
		}
		uuids = append(uuids, id)
	}
	return uuids, nil
}

func (t *Transformer) ensureInlinePolicy(ctx context.Context, batch *store.Batch, account, doc string) (string, error) {
	id := uuid.NewSHA1(inlinePolicyNamespace, []byte(account+"\x00"+doc)).String()

	_, ok, err := t.store.Get(ctx, model.UUIDKey(id))
	if err != nil {
		return "", err
	}
	if ok {
		return id, nil
	}

	name := doc
	if len(name) > 64 {
		name = name[:64]
	}
	policy := &model.Policy{UUID: id, Account: account, Name: name, Rules: []model.PolicyRule{{Text: doc}}}
	if err := t.writeRecord(batch, model.UUIDKey(id), policy); err != nil {
		return "", err
	}
	batch.Set(model.PolicyKey(account, name), id)
	batch.SetAdd(model.SetPoliciesKey(account), id)
	return id, nil
}

func (t *Transformer) readRole(ctx context.Context, uuid string) (*model.Role, bool, error) {
	raw, ok, err := t.store.Get(ctx, model.UUIDKey(uuid))
	if err != nil || !ok {
		return nil, ok, err
	}
	rec, err := model.Decode([]byte(raw))
	if err != nil {
		return nil, false, err
	}
	role, ok := rec.(*model.Role)
	if !ok {
		return nil, false, fmt.Errorf("replication: %s is not a role record", uuid)
	}
	return role, true, nil
}

func (t *Transformer) addRoleToUser(ctx context.Context, batch *store.Batch, userUUID, roleUUID string) error {
	if userUUID == "" {
		return nil
	}
	user, ok, err := t.readUser(ctx, userUUID)
	if err != nil || !ok {
		return err
	}
	user.AddRole(roleUUID)
	return t.writeRecord(batch, model.UUIDKey(userUUID), user)
}

func (t *Transformer) removeRoleFromUser(ctx context.Context, batch *store.Batch, userUUID, roleUUID string) error {
	if userUUID == "" {
		return nil
	}
	user, ok, err := t.readUser(ctx, userUUID)
	if err != nil || !ok {
		return err
	}
	user.RemoveRole(roleUUID)
	return t.writeRecord(batch, model.UUIDKey(userUUID), user)
}

func (t *Transformer) addRoleToGroup(ctx context.Context, batch *store.Batch, groupUUID, roleUUID string) error {
	if groupUUID == "" {
		return nil
	}
	group, ok, err := t.readGroup(ctx, groupUUID)
	if err != nil || !ok {
		return err
	}
	group.AddRole(roleUUID)
	return t.writeRecord(batch, model.UUIDKey(groupUUID), group)
}

func (t *Transformer) removeRoleFromGroup(ctx context.Context, batch *store.Batch, groupUUID, roleUUID string) error {
	if groupUUID == "" {
		return nil
	}
	group, ok, err := t.readGroup(ctx, groupUUID)
	if err != nil || !ok {
		return err
	}
	group.RemoveRole(roleUUID)
	return t.writeRecord(batch, model.UUIDKey(groupUUID), group)
}

// putRole handles sdcaccountrole/add (spec.md §4.3).
func (t *Transformer) putRole(ctx context.Context, batch *store.Batch, payload rawPayload) error {
	uuid := payload.first("uuid")
	account := payload.first("account")
	name := payload.first("name")

	policies, err := t.policyDocumentsToUUIDs(ctx, batch, account, payload.all("policydocument"))
	if err != nil {
		return err
	}

	role := &model.Role{UUID: uuid, Account: account, Name: name, Policies: policies}
	if err := t.writeRecord(batch, model.UUIDKey(uuid), role); err != nil {
		return err
	}
	batch.Set(model.RoleKey(account, name), uuid)
	batch.SetAdd(model.SetRolesKey(account), uuid)

	for _, memberDN := range payload.all("uniquemember") {
		if err := t.addRoleToUser(ctx, batch, uuidFromDN(memberDN), uuid); err != nil {
			return err
		}
	}
	for _, groupDN := range payload.all("membergroup") {
		if err := t.addRoleToGroup(ctx, batch, uuidFromDN(groupDN), uuid); err != nil {
			return err
		}
	}
	return nil
}

// delRole handles sdcaccountrole/delete. The delete entry carries the full
// member list, so no separate leaf-removal events precede it.
func (t *Transformer) delRole(ctx context.Context, batch *store.Batch, payload rawPayload) error {
	uuid := payload.first("uuid")
	account := payload.first("account")
	name := payload.first("name")
	if account == "" || name == "" {
		if role, ok, err := t.readRole(ctx, uuid); err == nil && ok {
			account, name = role.Account, role.Name
		}
	}

	batch.Del(model.UUIDKey(uuid))
	if account != "" && name != "" {
		batch.Del(model.RoleKey(account, name))
	}
	if account != "" {
		batch.SetRemove(model.SetRolesKey(account), uuid)
	}

	for _, memberDN := range payload.all("uniquemember") {
		if err := t.removeRoleFromUser(ctx, batch, uuidFromDN(memberDN), uuid); err != nil {
			return err
		}
	}
	for _, groupDN := range payload.all("membergroup") {
		if err := t.removeRoleFromGroup(ctx, batch, uuidFromDN(groupDN), uuid); err != nil {
			return err
		}
	}
	return nil
}

// modRole handles sdcaccountrole/modify: rename, policy add/remove/replace,
// and member add/remove, each applied in changelog order (spec.md §4.3).
func (t *Transformer) modRole(ctx context.Context, batch *store.Batch, ps postState, mods []modification) error {
	roleUUID := ps.str("uuid")
	role, ok, err := t.readRole(ctx, roleUUID)
	if err != nil {
		return err
	}
	if !ok {
		role = &model.Role{UUID: roleUUID, Account: ps.str("account"), Name: ps.str("name")}
	}
	account := role.Account

	for _, m := range mods {
		switch m.Modification.Type {
		case "role":
			if m.Operation == "replace" && len(m.Modification.Vals) > 0 {
				oldName := role.Name
				newName := m.Modification.Vals[0]
				if oldName != "" {
					batch.Del(model.RoleKey(account, oldName))
				}
				role.Name = newName
				batch.Set(model.RoleKey(account, newName), roleUUID)
			}
		case "policydocument":
			uuids, err := t.policyDocumentsToUUIDs(ctx, batch, account, m.Modification.Vals)
			if err != nil {
				return err
			}
			switch m.Operation {
			case "add":
				for _, p := range uuids {
					role.AddPolicy(p)
				}
			case "delete":
				for _, p := range uuids {
					role.RemovePolicy(p)
				}
			default:
				role.Policies = uuids
			}
		case "uniquemember":
			add := m.Operation == "add"
			for _, dn := range m.Modification.Vals {
				memberUUID := uuidFromDN(dn)
				if add {
					if err := t.addRoleToUser(ctx, batch, memberUUID, roleUUID); err != nil {
						return err
					}
				} else if err := t.removeRoleFromUser(ctx, batch, memberUUID, roleUUID); err != nil {
					return err
				}
			}
		case "membergroup":
			add := m.Operation == "add"
			for _, dn := range m.Modification.Vals {
				groupUUID := uuidFromDN(dn)
				if add {
					if err := t.addRoleToGroup(ctx, batch, groupUUID, roleUUID); err != nil {
						return err
					}
				} else if err := t.removeRoleFromGroup(ctx, batch, groupUUID, roleUUID); err != nil {
					return err
				}
			}
		default:
			t.log.Debug("ignoring unsupported role modification", zap.String("attribute", m.Modification.Type))
		}
	}

	return t.writeRecord(batch, model.UUIDKey(roleUUID), role)
}
