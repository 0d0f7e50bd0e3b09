package replication

import (
	"context"

	"github.com/arkeep-io/authcache/internal/directory"
	"github.com/arkeep-io/authcache/internal/model"
	"github.com/arkeep-io/authcache/internal/store"
)

// putGroupMembers handles groupofuniquenames/add: flag every listed member
// account as belonging to the directory-level group (spec.md §4.3).
func (t *Transformer) putGroupMembers(ctx context.Context, batch *store.Batch, entry directory.Entry, payload rawPayload) error {
	groupName := groupNameFromDN(entry.TargetDN)
	for _, memberDN := range payload.all("uniquemember") {
		if err := t.setAccountGroupFlag(ctx, batch, uuidFromDN(memberDN), groupName, true); err != nil {
			return err
		}
	}
	return nil
}

// removeAllGroupMembers handles groupofuniquenames/delete: the entry
// carries the full member list, so every one of them loses the flag.
func (t *Transformer) removeAllGroupMembers(ctx context.Context, batch *store.Batch, entry directory.Entry, payload rawPayload) error {
	groupName := groupNameFromDN(entry.TargetDN)
	for _, memberDN := range payload.all("uniquemember") {
		if err := t.setAccountGroupFlag(ctx, batch, uuidFromDN(memberDN), groupName, false); err != nil {
			return err
		}
	}
	return nil
}

// modGroupMembers handles groupofuniquenames/modify: each modification
// adds or removes one batch of members.
func (t *Transformer) modGroupMembers(ctx context.Context, batch *store.Batch, entry directory.Entry, mods []modification) error {
	groupName := groupNameFromDN(entry.TargetDN)
	for _, m := range mods {
		if m.Modification.Type != "uniquemember" {
			continue
		}
		present := m.Operation == "add"
		for _, memberDN := range m.Modification.Vals {
			if err := t.setAccountGroupFlag(ctx, batch, uuidFromDN(memberDN), groupName, present); err != nil {
				return err
			}
		}
	}
	return nil
}

// setAccountGroupFlag sets or clears groups[groupName] on the account
// record at uuid.
func (t *Transformer) setAccountGroupFlag(ctx context.Context, batch *store.Batch, uuid, groupName string, present bool) error {
	if uuid == "" {
		return nil
	}
	acc, ok, err := t.readAccount(ctx, uuid)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	acc.EnsureMaps()
	if present {
		acc.Groups[groupName] = true
	} else {
		delete(acc.Groups, groupName)
	}
	return t.writeRecord(batch, model.UUIDKey(uuid), acc)
}
