package replication

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/arkeep-io/authcache/internal/directory"
	"github.com/arkeep-io/authcache/internal/model"
	"github.com/arkeep-io/authcache/internal/store"
)

// keysPlaceholder is the shape a sdckey add writes when its owner record
// does not exist yet (spec.md §4.3: "the fingerprint is stored into an
// otherwise-empty record"). It has no "type" field, so model.Decode
// rejects it with ErrUnknownKind until the owner's own add event merges
// real identity fields in.
type keysPlaceholder struct {
	Keys       map[string]string `json:"keys,omitempty"`
	AccessKeys map[string]string `json:"accesskeys,omitempty"`
}

// mergeKeysPlaceholder unmarshals an untyped placeholder record and copies
// its keys/accesskeys into the destination maps, which must already be
// non-nil.
func mergeKeysPlaceholder(raw string, keys, accessKeys map[string]string) {
	var kp keysPlaceholder
	if err := json.Unmarshal([]byte(raw), &kp); err != nil {
		return
	}
	for fp, pem := range kp.Keys {
		keys[fp] = pem
	}
	for id, secret := range kp.AccessKeys {
		accessKeys[id] = secret
	}
}

// addKey handles sdckey/add: the owner uuid comes from the "_owner"
// attribute (the immediate parent in the DN, per spec.md §4.3), not from
// the key's own DN.
func (t *Transformer) addKey(ctx context.Context, batch *store.Batch, _ directory.Entry, payload rawPayload) error {
	owner := payload.first("_owner")
	fingerprint := payload.first("fingerprint")
	pkcs := payload.first("pkcs")
	if owner == "" || fingerprint == "" {
		return fmt.Errorf("replication: sdckey add missing owner or fingerprint")
	}

	raw, ok, err := t.store.Get(ctx, model.UUIDKey(owner))
	if err != nil {
		return err
	}
	if !ok {
		placeholder, err := json.Marshal(keysPlaceholder{Keys: map[string]string{fingerprint: pkcs}})
		if err != nil {
			return err
		}
		batch.Set(model.UUIDKey(owner), string(placeholder))
		return nil
	}

	rec, err := model.Decode([]byte(raw))
	if err == model.ErrUnknownKind {
		var kp keysPlaceholder
		if err := json.Unmarshal([]byte(raw), &kp); err != nil {
			return err
		}
		if kp.Keys == nil {
			kp.Keys = make(map[string]string)
		}
		kp.Keys[fingerprint] = pkcs
		merged, err := json.Marshal(kp)
		if err != nil {
			return err
		}
		batch.Set(model.UUIDKey(owner), string(merged))
		return nil
	}
	if err != nil {
		return err
	}

	switch v := rec.(type) {
	case *model.Account:
		v.EnsureMaps()
		v.Keys[fingerprint] = pkcs
		return t.writeRecord(batch, model.UUIDKey(owner), v)
	case *model.User:
		v.EnsureMaps()
		v.Keys[fingerprint] = pkcs
		return t.writeRecord(batch, model.UUIDKey(owner), v)
	default:
		return fmt.Errorf("replication: owner %s is not a key-bearing record", owner)
	}
}

// delKey handles sdckey/delete.
func (t *Transformer) delKey(ctx context.Context, batch *store.Batch, _ directory.Entry, payload rawPayload) error {
	owner := payload.first("_owner")
	fingerprint := payload.first("fingerprint")
	if owner == "" || fingerprint == "" {
		return fmt.Errorf("replication: sdckey delete missing owner or fingerprint")
	}

	raw, ok, err := t.store.Get(ctx, model.UUIDKey(owner))
	if err != nil || !ok {
		return err
	}

	rec, err := model.Decode([]byte(raw))
	if err != nil {
		return err
	}

	switch v := rec.(type) {
	case *model.Account:
		delete(v.Keys, fingerprint)
		return t.writeRecord(batch, model.UUIDKey(owner), v)
	case *model.User:
		delete(v.Keys, fingerprint)
		return t.writeRecord(batch, model.UUIDKey(owner), v)
	default:
		return fmt.Errorf("replication: owner %s is not a key-bearing record", owner)
	}
}

// writeRecord marshals r and appends a Set op to batch. Shared by every
// handler that does a read-modify-write against an existing record.
func (t *Transformer) writeRecord(batch *store.Batch, key string, r model.Record) error {
	raw, err := model.Marshal(r)
	if err != nil {
		return err
	}
	batch.Set(key, string(raw))
	return nil
}
