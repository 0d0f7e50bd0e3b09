package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arkeep-io/authcache/internal/credentials"
	"github.com/arkeep-io/authcache/internal/model"
	"github.com/arkeep-io/authcache/internal/sessiontoken"
	"github.com/arkeep-io/authcache/internal/storetest"
	"github.com/arkeep-io/authcache/internal/verify"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func putRecord(t *testing.T, s *storetest.Fake, key string, rec model.Record) {
	t.Helper()
	raw, err := model.Marshal(rec)
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), key, string(raw)))
}

func newTestRouter(t *testing.T, s *storetest.Fake, ready func() bool) http.Handler {
	t.Helper()
	now := func() time.Time { return time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC) }
	resolver := credentials.New(s, now)
	tokens := sessiontoken.NewValidator(nil)
	orch := verify.New(resolver, tokens, zap.NewNop(), now)
	return NewRouter(RouterConfig{Store: s, Resolver: resolver, Verifier: orch, Logger: zap.NewNop(), Ready: ready})
}

func TestHealthzReflectsReady(t *testing.T) {
	s := storetest.New()
	r := newTestRouter(t, s, func() bool { return false })

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGetAccountByID(t *testing.T) {
	s := storetest.New()
	putRecord(t, s, model.UUIDKey("U"), &model.Account{UUID: "U", Login: "admin", ApprovedForProvisioning: true})
	r := newTestRouter(t, s, nil)

	req := httptest.NewRequest(http.MethodGet, "/accounts/U", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var acc model.Account
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &acc))
	require.Equal(t, "admin", acc.Login)
}

func TestGetAccountByIDNotFound(t *testing.T) {
	s := storetest.New()
	r := newTestRouter(t, s, nil)

	req := httptest.NewRequest(http.MethodGet, "/accounts/missing", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "AccountDoesNotExist", string(body.RestCode))
}

func TestGetUserWithFallbackToAccount(t *testing.T) {
	s := storetest.New()
	putRecord(t, s, model.UUIDKey("U"), &model.Account{UUID: "U", Login: "admin", ApprovedForProvisioning: true})
	r := newTestRouter(t, s, nil)

	req := httptest.NewRequest(http.MethodGet, "/users?account=U&login=admin&fallback=true", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestGetUserWithFallbackNotApproved(t *testing.T) {
	s := storetest.New()
	putRecord(t, s, model.UUIDKey("U"), &model.Account{UUID: "U", Login: "admin", ApprovedForProvisioning: false})
	r := newTestRouter(t, s, nil)

	req := httptest.NewRequest(http.MethodGet, "/users?account=U&login=admin&fallback=true", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "NotApprovedForProvisioning", string(body.RestCode))
}

func TestUUIDsToNamesLookup(t *testing.T) {
	s := storetest.New()
	putRecord(t, s, model.UUIDKey("R"), &model.Role{UUID: "R", Name: "developer_read", Account: "A"})
	r := newTestRouter(t, s, nil)

	req := httptest.NewRequest(http.MethodGet, "/names?uuid=R", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "developer_read")
}

func TestAWSAuthLookupNotFound(t *testing.T) {
	s := storetest.New()
	r := newTestRouter(t, s, nil)

	req := httptest.NewRequest(http.MethodGet, "/aws-auth/AKIAMISSING", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}
