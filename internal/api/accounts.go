package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/arkeep-io/authcache/internal/apierr"
	"github.com/arkeep-io/authcache/internal/model"
	"github.com/arkeep-io/authcache/internal/store"
)

type accountsHandler struct {
	store store.Store
	log   *zap.Logger
}

// GetByID implements GET /accounts/{id} (spec.md §6).
func (h *accountsHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	acc, err := fetchAccount(r.Context(), h.store, chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, h.log, err)
		return
	}
	Ok(w, acc)
}

// GetByLogin implements GET /accounts?login=X.
func (h *accountsHandler) GetByLogin(w http.ResponseWriter, r *http.Request) {
	login := r.URL.Query().Get("login")
	if login == "" {
		WriteError(w, h.log, apierr.New(apierr.AccountDoesNotExist, "login query parameter is required"))
		return
	}

	uuid, ok, err := h.store.Get(r.Context(), model.AccountLoginKey(login))
	if err != nil {
		WriteError(w, h.log, apierr.Wrap(apierr.RedisError, "store read failed", err))
		return
	}
	if !ok {
		WriteError(w, h.log, apierr.New(apierr.AccountDoesNotExist, "no account with that login"))
		return
	}

	acc, err := fetchAccount(r.Context(), h.store, uuid)
	if err != nil {
		WriteError(w, h.log, err)
		return
	}
	Ok(w, acc)
}
