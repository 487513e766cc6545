package handlers

import (
	"net/http"
	"strings"

	"github.com/pushbeams/beams-device/internal/services/registry"
)

// PublicKey returns the web push application server key.
func (a *API) PublicKey(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"vapidPublicKey": a.registry.VAPIDPublicKey()})
}

// RegisterDevice creates a device and returns its ID.
func (a *API) RegisterDevice(w http.ResponseWriter, r *http.Request, platform string) {
	var payload struct {
		Token         string `json:"token"`
		WebsitePushID string `json:"websitePushId"`
		Metadata      struct {
			SDKVersion string `json:"sdkVersion"`
		} `json:"metadata"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}
	device, err := a.registry.RegisterDevice(platform, registry.Registration{
		Token:         payload.Token,
		WebsitePushID: payload.WebsitePushID,
		SDKVersion:    payload.Metadata.SDKVersion,
	})
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": device.ID})
}

// GetDevice returns one device.
func (a *API) GetDevice(w http.ResponseWriter, _ *http.Request, platform, deviceID string) {
	device, err := a.registry.Device(platform, deviceID)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, device)
}

// DeleteDevice removes a device.
func (a *API) DeleteDevice(w http.ResponseWriter, _ *http.Request, platform, deviceID string) {
	if err := a.registry.DeleteDevice(platform, deviceID); err != nil {
		writeRegistryError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// UpdateMetadata records the device's SDK version.
func (a *API) UpdateMetadata(w http.ResponseWriter, r *http.Request, platform, deviceID string) {
	var payload struct {
		SDKVersion string `json:"sdkVersion"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}
	if err := a.registry.UpdateMetadata(platform, deviceID, payload.SDKVersion); err != nil {
		writeRegistryError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// SetUserID binds the device to the user named by the bearer token.
func (a *API) SetUserID(w http.ResponseWriter, r *http.Request, platform, deviceID string) {
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
		return
	}
	if _, err := a.registry.SetUserID(platform, deviceID, token); err != nil {
		writeRegistryError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// ListInterests returns the device's interests.
func (a *API) ListInterests(w http.ResponseWriter, _ *http.Request, platform, deviceID string) {
	names, err := a.registry.Interests(platform, deviceID)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"interests": names})
}

// ReplaceInterests sets the device's interests.
func (a *API) ReplaceInterests(w http.ResponseWriter, r *http.Request, platform, deviceID string) {
	var payload struct {
		Interests []string `json:"interests"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}
	if err := a.registry.SetInterests(platform, deviceID, payload.Interests); err != nil {
		writeRegistryError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// AddInterest subscribes the device to one interest.
func (a *API) AddInterest(w http.ResponseWriter, _ *http.Request, platform, deviceID, interest string) {
	if err := a.registry.AddInterest(platform, deviceID, interest); err != nil {
		writeRegistryError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// RemoveInterest unsubscribes the device from one interest.
func (a *API) RemoveInterest(w http.ResponseWriter, _ *http.Request, platform, deviceID, interest string) {
	if err := a.registry.RemoveInterest(platform, deviceID, interest); err != nil {
		writeRegistryError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}
