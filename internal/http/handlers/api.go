package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pushbeams/beams-device/internal/interests"
	"github.com/pushbeams/beams-device/internal/services/registry"
)

// API groups HTTP handlers and dependencies.
type API struct {
	registry  *registry.Registry
	relay     *Relay
	secretKey string
	logger    *slog.Logger
}

// New creates HTTP handlers with explicit dependencies. An empty secretKey
// leaves the publish API unauthenticated.
func New(reg *registry.Registry, relay *Relay, secretKey string, logger *slog.Logger) *API {
	return &API{
		registry:  reg,
		relay:     relay,
		secretKey: secretKey,
		logger:    logger,
	}
}

// Logger returns request logger used by HTTP middleware.
func (a *API) Logger() *slog.Logger {
	return a.logger
}

// Health reports liveness and the served instance.
func (a *API) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"instanceId": a.registry.InstanceID(),
		"relays":     a.relay.Connections(),
	})
}

// RequireInstance rejects requests for any instance but the served one.
func (a *API) RequireInstance(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := a.registry.CheckInstance(chi.URLParam(r, "instanceId")); err != nil {
			writeRegistryError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError uses the registrar error body: {"error": ..., "description": ...}.
func writeError(w http.ResponseWriter, status int, code string, description string) {
	writeJSON(w, status, map[string]any{
		"error":       code,
		"description": description,
	})
}

func writeRegistryError(w http.ResponseWriter, err error) {
	var validation *interests.ValidationError
	switch {
	case errors.Is(err, registry.ErrInstanceNotFound):
		writeError(w, http.StatusNotFound, "Instance not found", err.Error())
	case errors.Is(err, registry.ErrDeviceNotFound):
		writeError(w, http.StatusNotFound, "Device not found", err.Error())
	case errors.Is(err, registry.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, registry.ErrUserConflict):
		writeError(w, http.StatusConflict, "User conflict", err.Error())
	case errors.As(err, &validation), errors.Is(err, interests.ErrTooManyInterests):
		writeError(w, http.StatusBadRequest, "Invalid interests", err.Error())
	case errors.Is(err, registry.ErrInvalidPlatform),
		errors.Is(err, registry.ErrTokenRequired),
		errors.Is(err, registry.ErrWebsitePushIDRequired),
		errors.Is(err, registry.ErrNoInterests),
		errors.Is(err, registry.ErrTooManyPublishInterests):
		writeError(w, http.StatusBadRequest, "Bad request", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error", err.Error())
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", "Request body is not valid JSON")
		return false
	}
	return true
}
