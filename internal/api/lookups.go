package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/arkeep-io/authcache/internal/apierr"
	"github.com/arkeep-io/authcache/internal/model"
	"github.com/arkeep-io/authcache/internal/store"
)

type lookupsHandler struct {
	store store.Store
	log   *zap.Logger
}

// nameKeyFor resolves the name->uuid key builder for a given lookup type,
// mirroring the objectclass-keyed denormalization the replicator writes
// (spec.md §4.3).
func nameKeyFor(kind, account, name string) (string, bool) {
	switch kind {
	case "role":
		return model.RoleKey(account, name), true
	case "policy":
		return model.PolicyKey(account, name), true
	case "group":
		return model.GroupKey(account, name), true
	default:
		return "", false
	}
}

// NamesToUUIDs implements GET /uuids?account=X&type=Y&name=Z1&name=Z2.
func (h *lookupsHandler) NamesToUUIDs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	account := q.Get("account")
	kind := q.Get("type")
	names := q["name"]

	if _, ok := nameKeyFor(kind, account, ""); !ok {
		WriteError(w, h.log, apierr.New(apierr.RoleDoesNotExist, "unsupported lookup type: "+kind))
		return
	}

	result := make(map[string]string, len(names))
	for _, name := range names {
		k, _ := nameKeyFor(kind, account, name)
		uuid, found, err := h.store.Get(r.Context(), k)
		if err != nil {
			WriteError(w, h.log, apierr.Wrap(apierr.RedisError, "store read failed", err))
			return
		}
		if found {
			result[name] = uuid
		}
	}
	Ok(w, result)
}

// UUIDsToNames implements GET /names?uuid=X1&uuid=X2.
func (h *lookupsHandler) UUIDsToNames(w http.ResponseWriter, r *http.Request) {
	uuids := r.URL.Query()["uuid"]

	type named struct {
		Type    string `json:"type"`
		Name    string `json:"name"`
		Account string `json:"account,omitempty"`
	}
	result := make(map[string]named, len(uuids))

	for _, uuid := range uuids {
		raw, ok, err := h.store.Get(r.Context(), model.UUIDKey(uuid))
		if err != nil {
			WriteError(w, h.log, apierr.Wrap(apierr.RedisError, "store read failed", err))
			return
		}
		if !ok {
			continue
		}
		rec, err := model.Decode([]byte(raw))
		if err != nil {
			continue
		}
		switch v := rec.(type) {
		case *model.Role:
			result[uuid] = named{Type: "role", Name: v.Name, Account: v.Account}
		case *model.Policy:
			result[uuid] = named{Type: "policy", Name: v.Name, Account: v.Account}
		case *model.Group:
			result[uuid] = named{Type: "group", Name: v.Name, Account: v.Account}
		case *model.Account:
			result[uuid] = named{Type: "account", Name: v.Login}
		case *model.User:
			result[uuid] = named{Type: "user", Name: v.Login, Account: v.Account}
		}
	}
	Ok(w, result)
}
