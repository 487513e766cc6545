// Package registrar is the HTTP client for the Beams device API.
package registrar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pushbeams/beams-device/internal/model"
)

const defaultTimeout = 10 * time.Second

// Metadata is the device metadata sent on registration and refresh.
type Metadata struct {
	SDKVersion string `json:"sdkVersion"`
}

// DeviceRegistration is the POST /devices/{platform} body.
type DeviceRegistration struct {
	Token         string   `json:"token"`
	WebsitePushID string   `json:"websitePushId,omitempty"`
	Metadata      Metadata `json:"metadata"`
}

type Client struct {
	baseURL    string
	instanceID string
	http       *http.Client
}

// DefaultBaseURL is the hosted registrar for instanceID.
func DefaultBaseURL(instanceID string) string {
	return fmt.Sprintf("https://%s.pushnotifications.pusher.com", instanceID)
}

// NewClient targets endpoint, or the hosted registrar when endpoint is empty.
func NewClient(instanceID, endpoint string, httpClient *http.Client) *Client {
	baseURL := strings.TrimSuffix(strings.TrimSpace(endpoint), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL(instanceID)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: baseURL, instanceID: instanceID, http: httpClient}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) instancePath() string {
	return c.baseURL + "/device_api/v1/instances/" + url.PathEscape(c.instanceID)
}

func (c *Client) devicePath(platform model.Platform, deviceID string) string {
	return c.instancePath() + "/devices/" + url.PathEscape(string(platform)) + "/" + url.PathEscape(deviceID)
}

// PublicKey fetches the VAPID application server key.
func (c *Client) PublicKey(ctx context.Context) (string, error) {
	var payload struct {
		VAPIDPublicKey string `json:"vapidPublicKey"`
	}
	if err := c.do(ctx, http.MethodGet, c.instancePath()+"/web-vapid-public-key", nil, nil, &payload); err != nil {
		return "", err
	}
	if payload.VAPIDPublicKey == "" {
		return "", fmt.Errorf("registrar returned an empty vapid public key")
	}
	return payload.VAPIDPublicKey, nil
}

// RegisterDevice returns the device ID assigned by the registrar.
func (c *Client) RegisterDevice(ctx context.Context, platform model.Platform, reg DeviceRegistration) (string, error) {
	var payload struct {
		ID string `json:"id"`
	}
	path := c.instancePath() + "/devices/" + url.PathEscape(string(platform))
	if err := c.do(ctx, http.MethodPost, path, reg, nil, &payload); err != nil {
		return "", err
	}
	if payload.ID == "" {
		return "", fmt.Errorf("registrar returned an empty device id")
	}
	return payload.ID, nil
}

func (c *Client) DeleteDevice(ctx context.Context, platform model.Platform, deviceID string) error {
	return c.do(ctx, http.MethodDelete, c.devicePath(platform, deviceID), nil, nil, nil)
}

func (c *Client) UpdateMetadata(ctx context.Context, platform model.Platform, deviceID string, metadata Metadata) error {
	return c.do(ctx, http.MethodPut, c.devicePath(platform, deviceID)+"/metadata", metadata, nil, nil)
}

// SetUserID binds the device to the user asserted by token.
func (c *Client) SetUserID(ctx context.Context, platform model.Platform, deviceID, token string) error {
	headers := map[string]string{"Authorization": "Bearer " + token}
	return c.do(ctx, http.MethodPut, c.devicePath(platform, deviceID)+"/user", nil, headers, nil)
}

func (c *Client) AddInterest(ctx context.Context, platform model.Platform, deviceID, interest string) error {
	path := c.devicePath(platform, deviceID) + "/interests/" + url.PathEscape(interest)
	return c.do(ctx, http.MethodPost, path, nil, nil, nil)
}

func (c *Client) RemoveInterest(ctx context.Context, platform model.Platform, deviceID, interest string) error {
	path := c.devicePath(platform, deviceID) + "/interests/" + url.PathEscape(interest)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// Interests never returns nil on success.
func (c *Client) Interests(ctx context.Context, platform model.Platform, deviceID string) ([]string, error) {
	var payload struct {
		Interests []string `json:"interests"`
	}
	if err := c.do(ctx, http.MethodGet, c.devicePath(platform, deviceID)+"/interests", nil, nil, &payload); err != nil {
		return nil, err
	}
	if payload.Interests == nil {
		return []string{}, nil
	}
	return payload.Interests, nil
}

func (c *Client) SetInterests(ctx context.Context, platform model.Platform, deviceID string, interests []string) error {
	if interests == nil {
		interests = []string{}
	}
	body := map[string]any{"interests": interests}
	return c.do(ctx, http.MethodPut, c.devicePath(platform, deviceID)+"/interests", body, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any, headers map[string]string, out any) error {
	return doJSON(ctx, c.http, method, path, body, headers, out)
}

func doJSON(ctx context.Context, client *http.Client, method, path string, body any, headers map[string]string, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newStatusError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}
