package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/arkeep-io/authcache/internal/credentials"
	"github.com/arkeep-io/authcache/internal/store"
	"github.com/arkeep-io/authcache/internal/verify"
)

// RouterConfig holds all dependencies needed to build the HTTP router. It
// is populated in cmd/authcached after every component is initialized and
// passed to NewRouter as a single struct.
type RouterConfig struct {
	Store    store.Store
	Resolver *credentials.Resolver
	Verifier *verify.Orchestrator
	Logger   *zap.Logger

	// Ready reports the replication driver's "caught up" signal
	// (spec.md §4.4). Nil means always ready, for tests.
	Ready func() bool
}

// NewRouter builds and returns the fully configured Chi router exposing
// the verification-facing HTTP API (spec.md §6).
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)

	accounts := &accountsHandler{store: cfg.Store, log: cfg.Logger}
	users := &usersHandler{store: cfg.Store, log: cfg.Logger}
	lookups := &lookupsHandler{store: cfg.Store, log: cfg.Logger}
	awsAuth := &awsAuthHandler{store: cfg.Store, log: cfg.Logger}
	awsVerify := &awsVerifyHandler{verifier: cfg.Verifier, log: cfg.Logger}

	r.Get("/healthz", healthzHandler(cfg.Ready))

	r.Get("/accounts/{id}", accounts.GetByID)
	r.Get("/accounts", accounts.GetByLogin)

	r.Get("/users/{id}", users.GetByID)
	r.Get("/users", users.GetByAccountAndLogin)

	r.Get("/uuids", lookups.NamesToUUIDs)
	r.Get("/names", lookups.UUIDsToNames)

	r.Get("/aws-auth/{accessKeyId}", awsAuth.Lookup)
	r.Post("/aws-verify", awsVerify.Verify)

	return r
}

func healthzHandler(ready func() bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil && !ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
