package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// IssueToken returns a user token for the user_id query parameter. It
// stands in for a customer backend's auth endpoint.
func (a *API) IssueToken(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "Bad request", "user_id query parameter is required")
		return
	}
	token, err := a.registry.IssueToken(userID)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token})
}

// Publish delivers a notification to every device subscribed to the
// request's interests.
func (a *API) Publish(w http.ResponseWriter, r *http.Request) {
	if a.secretKey != "" {
		token, ok := bearerToken(r)
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(a.secretKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "Unauthorized", "invalid secret key")
			return
		}
	}

	var payload struct {
		Interests []string        `json:"interests"`
		Web       json.RawMessage `json:"web"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}
	if len(payload.Web) == 0 || string(payload.Web) == "null" {
		writeError(w, http.StatusBadRequest, "Bad request", "web payload is required")
		return
	}

	result, err := a.registry.Publish(r.Context(), payload.Interests, payload.Web, a.relay)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
