// Package replication implements the replicator's core: translating one
// directory changelog entry at a time into store mutations that bring the
// cache from the pre-entry state to the post-entry state (spec.md §4.3),
// and the serial driver loop that binds poller, transformer and store
// together (spec.md §4.4).
package replication

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/arkeep-io/authcache/internal/directory"
	"github.com/arkeep-io/authcache/internal/store"
	"go.uber.org/zap"
)

// rawPayload is the attribute→values map carried as an add/delete
// changelog entry's Changes payload.
type rawPayload map[string][]string

func (p rawPayload) first(attr string) string {
	if len(p[attr]) == 0 {
		return ""
	}
	return p[attr][0]
}

func (p rawPayload) all(attr string) []string { return p[attr] }

func parseRawPayload(raw json.RawMessage) (rawPayload, error) {
	if len(raw) == 0 {
		return rawPayload{}, nil
	}
	var p rawPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return p, nil
}

// modification is one entry in a modify changelog's Changes list.
type modification struct {
	Operation string `json:"operation"` // add, delete, replace
	Modification struct {
		Type string   `json:"type"`
		Vals []string `json:"vals"`
	} `json:"modification"`
}

func parseModifications(raw json.RawMessage) ([]modification, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var mods []modification
	if err := json.Unmarshal(raw, &mods); err != nil {
		return nil, err
	}
	return mods, nil
}

// postState is the generic post-entry shape for a modify changelog entry;
// per-handler code pulls out the fields it cares about.
type postState map[string]json.RawMessage

func parsePostState(raw json.RawMessage) (postState, error) {
	if len(raw) == 0 {
		return postState{}, nil
	}
	var ps postState
	if err := json.Unmarshal(raw, &ps); err != nil {
		return nil, err
	}
	return ps, nil
}

func (ps postState) str(key string) string {
	vals := ps.strSlice(key)
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

func (ps postState) strSlice(key string) []string {
	raw, ok := ps[key]
	if !ok {
		return nil
	}
	var ss []string
	if err := json.Unmarshal(raw, &ss); err == nil {
		return ss
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		return []string{single}
	}
	return nil
}

// objectClassKey normalizes a set of objectclass values into the dispatch
// table's key: sorted, space-joined, matching spec.md §4.3's table.
func objectClassKey(values []string) string {
	sorted := append([]string(nil), values...)
	sort.Strings(sorted)
	return strings.Join(sorted, " ")
}

const (
	classPerson          = "sdcperson"
	classKey             = "sdckey"
	classGroupUnique     = "groupofuniquenames"
	classAccountUser     = "sdcaccountuser sdcperson"
	classAccountRole     = "sdcaccountrole"
	classAccountGroup    = "sdcaccountgroup"
)

// Transformer applies changelog entries to a store.Batch. It is pure with
// respect to the batch — Transform never writes the store directly, only
// appends ops to the batch it is given (spec.md §4.3) — but it does read
// the store synchronously wherever the read-modify-write contract requires
// seeing the current state of a record before mutating it.
type Transformer struct {
	store store.Store
	log   *zap.Logger
}

func New(s store.Store, log *zap.Logger) *Transformer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Transformer{store: s, log: log.Named("replication")}
}

// Transform appends the batch ops needed to bring the cache from its
// pre-entry state to its post-entry state, per entry. An unrecognized
// objectclass is logged and ignored (batch unmodified, nil error); an
// unrecognized changetype on a recognized objectclass returns
// ErrUnsupportedOperation, which the driver treats as fatal-for-this-entry.
func (t *Transformer) Transform(ctx context.Context, batch *store.Batch, entry directory.Entry) error {
	switch entry.ChangeType {
	case "add", "delete":
		payload, err := parseRawPayload(entry.Changes)
		if err != nil {
			return err
		}
		class := objectClassKey(payload.all("objectclass"))
		return t.dispatchAddDelete(ctx, batch, entry, class, payload)

	case "modify":
		ps, err := parsePostState(entry.PostEntry)
		if err != nil {
			return err
		}
		mods, err := parseModifications(entry.Changes)
		if err != nil {
			return err
		}
		class := objectClassKey(ps.strSlice("objectclass"))
		return t.dispatchModify(ctx, batch, entry, class, ps, mods)

	default:
		return ErrUnsupportedOperation
	}
}

func (t *Transformer) dispatchAddDelete(ctx context.Context, batch *store.Batch, entry directory.Entry, class string, payload rawPayload) error {
	isAdd := entry.ChangeType == "add"
	switch class {
	case classPerson:
		if isAdd {
			return t.putAccount(ctx, batch, payload)
		}
		return t.delAccount(ctx, batch, payload)
	case classKey:
		if isAdd {
			return t.addKey(ctx, batch, entry, payload)
		}
		return t.delKey(ctx, batch, entry, payload)
	case classGroupUnique:
		if isAdd {
			return t.putGroupMembers(ctx, batch, entry, payload)
		}
		return t.removeAllGroupMembers(ctx, batch, entry, payload)
	case classAccountUser:
		if isAdd {
			return t.putSubUser(ctx, batch, payload)
		}
		return t.delSubUser(ctx, batch, payload)
	case classAccountRole:
		if isAdd {
			return t.putRole(ctx, batch, payload)
		}
		return t.delRole(ctx, batch, payload)
	case classAccountGroup:
		if isAdd {
			return t.putAccountGroup(ctx, batch, payload)
		}
		return t.delAccountGroup(ctx, batch, payload)
	default:
		t.log.Debug("ignoring unrecognized objectclass", zap.String("objectclass", class), zap.String("changetype", entry.ChangeType))
		return nil
	}
}

func (t *Transformer) dispatchModify(ctx context.Context, batch *store.Batch, entry directory.Entry, class string, ps postState, mods []modification) error {
	switch class {
	case classPerson:
		return t.modAccount(ctx, batch, ps, mods)
	case classKey:
		// Fingerprint is part of the DN, so a key modify is a no-op by design.
		return nil
	case classGroupUnique:
		return t.modGroupMembers(ctx, batch, entry, mods)
	case classAccountUser:
		return t.modSubUser(ctx, batch, ps, mods)
	case classAccountRole:
		return t.modRole(ctx, batch, ps, mods)
	case classAccountGroup:
		return t.modAccountGroup(ctx, batch, ps, mods)
	default:
		t.log.Debug("ignoring unrecognized objectclass", zap.String("objectclass", class), zap.String("changetype", "modify"))
		return nil
	}
}
