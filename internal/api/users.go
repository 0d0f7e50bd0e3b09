package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/arkeep-io/authcache/internal/apierr"
	"github.com/arkeep-io/authcache/internal/model"
	"github.com/arkeep-io/authcache/internal/store"
)

type usersHandler struct {
	store store.Store
	log   *zap.Logger
}

// GetByID implements GET /users/{id}.
func (h *usersHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	user, err := fetchUser(r.Context(), h.store, chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, h.log, err)
		return
	}
	Ok(w, user)
}

// GetByAccountAndLogin implements GET /users?account=X&login=Y&fallback=true.
// When fallback is set and no sub-user matches, the account's approval is
// checked and, if approved, the request returns the owning account itself
// (spec.md §6, restCode NotApprovedForProvisioning).
func (h *usersHandler) GetByAccountAndLogin(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	account := q.Get("account")
	login := q.Get("login")
	fallback := q.Get("fallback") == "true"

	if account == "" || login == "" {
		WriteError(w, h.log, apierr.New(apierr.UserDoesNotExist, "account and login query parameters are required"))
		return
	}

	userKey := model.UserKey(account, login)
	uuid, ok, err := h.store.Get(r.Context(), userKey)
	if err != nil {
		WriteError(w, h.log, apierr.Wrap(apierr.RedisError, "store read failed", err))
		return
	}
	if ok {
		user, err := fetchUser(r.Context(), h.store, uuid)
		if err != nil {
			WriteError(w, h.log, err)
			return
		}
		Ok(w, user)
		return
	}

	if !fallback {
		WriteError(w, h.log, apierr.New(apierr.UserDoesNotExist, "no sub-user with that login"))
		return
	}

	acc, err := fetchAccount(r.Context(), h.store, account)
	if err != nil {
		WriteError(w, h.log, err)
		return
	}
	if acc.Login != login {
		WriteError(w, h.log, apierr.New(apierr.UserDoesNotExist, "no sub-user with that login"))
		return
	}
	if !acc.ApprovedForProvisioning {
		WriteError(w, h.log, apierr.New(apierr.NotApprovedForProvisioning, "account is not approved for provisioning"))
		return
	}
	Ok(w, acc)
}
