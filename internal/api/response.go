// Package api implements the HTTP verification-facing surface (spec.md
// §6): account/user/role lookups, access-key lookups, and request
// signature verification, all served over Chi.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/arkeep-io/authcache/internal/apierr"
	"go.uber.org/zap"
)

// JSON writes a JSON-encoded response with the given status code.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Ok writes a 200 OK response with payload as the body.
func Ok(w http.ResponseWriter, payload any) {
	JSON(w, http.StatusOK, payload)
}

// errorBody is the wire shape spec.md §6 names: {restCode, statusCode, message}.
type errorBody struct {
	RestCode   apierr.RestCode `json:"restCode"`
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
}

// WriteError renders err at the HTTP boundary. If err is an *apierr.Error
// its restCode/statusCode are used verbatim; any cause is logged but never
// serialized to the client (spec.md §7). Any other error is treated as an
// opaque internal failure.
func WriteError(w http.ResponseWriter, log *zap.Logger, err error) {
	var apiErr *apierr.Error
	if errors.As(err, &apiErr) {
		if apiErr.Cause != nil {
			log.Warn("request failed", zap.String("restCode", string(apiErr.RestCode)), zap.Error(apiErr.Cause))
		}
		JSON(w, apiErr.StatusCode, errorBody{
			RestCode:   apiErr.RestCode,
			StatusCode: apiErr.StatusCode,
			Message:    apiErr.Message,
		})
		return
	}

	log.Error("unhandled internal error", zap.Error(err))
	JSON(w, http.StatusInternalServerError, errorBody{
		RestCode:   apierr.RedisError,
		StatusCode: http.StatusInternalServerError,
		Message:    "an internal error occurred",
	})
}

// decodeJSON decodes the request body into dst, capping it at 1 MB.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}
