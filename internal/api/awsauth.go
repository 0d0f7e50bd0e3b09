package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/arkeep-io/authcache/internal/apierr"
	"github.com/arkeep-io/authcache/internal/model"
	"github.com/arkeep-io/authcache/internal/store"
)

type awsAuthHandler struct {
	store store.Store
	log   *zap.Logger
}

// redactedUser strips secret material before it crosses the HTTP boundary
// (spec.md §6: "returns the user record (redacted)").
type redactedUser struct {
	UUID    string `json:"uuid"`
	Account string `json:"account,omitempty"`
	Login   string `json:"login"`
	Roles   []string `json:"roles,omitempty"`
}

// Lookup implements GET /aws-auth/{accessKeyId}.
func (h *awsAuthHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	accessKeyID := chi.URLParam(r, "accessKeyId")

	ownerUUID, ok, err := h.store.Get(r.Context(), model.AccessKeyKey(accessKeyID))
	if err != nil {
		WriteError(w, h.log, apierr.Wrap(apierr.RedisError, "store read failed", err))
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}

	raw, ok, err := h.store.Get(r.Context(), model.UUIDKey(ownerUUID))
	if err != nil {
		WriteError(w, h.log, apierr.Wrap(apierr.RedisError, "store read failed", err))
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	rec, err := model.Decode([]byte(raw))
	if err != nil {
		WriteError(w, h.log, apierr.Wrap(apierr.RedisError, "decoding stored record failed", err))
		return
	}

	switch v := rec.(type) {
	case *model.Account:
		Ok(w, redactedUser{UUID: v.UUID, Login: v.Login})
	case *model.User:
		Ok(w, redactedUser{UUID: v.UUID, Account: v.Account, Login: v.Login, Roles: v.Roles})
	default:
		http.NotFound(w, r)
	}
}
