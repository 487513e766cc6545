// Package registry is an in-memory Beams device registry backing the
// development registrar server.
package registry

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pushbeams/beams-device/internal/interests"
	"github.com/pushbeams/beams-device/internal/model"
)

// MaxPublishInterests bounds the interests targeted by one publish.
const MaxPublishInterests = 100

// Device is one registered device.
type Device struct {
	ID            string         `json:"id"`
	Platform      model.Platform `json:"platform"`
	Token         string         `json:"token"`
	WebsitePushID string         `json:"websitePushId,omitempty"`
	SDKVersion    string         `json:"sdkVersion,omitempty"`
	UserID        string         `json:"userId,omitempty"`
	Interests     []string       `json:"interests"`
	CreatedAt     time.Time      `json:"createdAt"`
}

func (d *Device) clone() Device {
	out := *d
	out.Interests = slices.Clone(d.Interests)
	if out.Interests == nil {
		out.Interests = []string{}
	}
	return out
}

// Registration is the payload of a device registration.
type Registration struct {
	Token         string
	WebsitePushID string
	SDKVersion    string
}

// Registry stores devices for a single instance.
type Registry struct {
	instanceID string
	secret     []byte
	vapidKey   string
	logger     *slog.Logger
	now        func() time.Time

	mu      sync.RWMutex
	devices map[string]*Device
}

// New creates an empty registry with a fresh VAPID key pair. A nil secret
// is replaced by a random one.
func New(instanceID string, secret []byte, logger *slog.Logger) (*Registry, error) {
	if instanceID == "" {
		return nil, fmt.Errorf("registry instance ID is required")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate token secret: %w", err)
		}
	}
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate vapid key: %w", err)
	}
	return &Registry{
		instanceID: instanceID,
		secret:     secret,
		vapidKey:   base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		logger:     logger,
		now:        time.Now,
		devices:    map[string]*Device{},
	}, nil
}

// InstanceID returns the served instance.
func (r *Registry) InstanceID() string { return r.instanceID }

// VAPIDPublicKey returns the uncompressed P-256 public key, base64url without padding.
func (r *Registry) VAPIDPublicKey() string { return r.vapidKey }

// CheckInstance reports ErrInstanceNotFound for any other instance ID.
func (r *Registry) CheckInstance(instanceID string) error {
	if instanceID != r.instanceID {
		return ErrInstanceNotFound
	}
	return nil
}

func parsePlatform(raw string) (model.Platform, error) {
	switch p := model.Platform(raw); p {
	case model.PlatformWeb, model.PlatformSafari:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPlatform, raw)
	}
}

// RegisterDevice stores a new device and returns it. IDs take the form
// "<platform>-<uuid>".
func (r *Registry) RegisterDevice(platform string, reg Registration) (Device, error) {
	p, err := parsePlatform(platform)
	if err != nil {
		return Device{}, err
	}
	if reg.Token == "" {
		return Device{}, ErrTokenRequired
	}
	if p == model.PlatformSafari && reg.WebsitePushID == "" {
		return Device{}, ErrWebsitePushIDRequired
	}

	device := &Device{
		ID:            string(p) + "-" + uuid.NewString(),
		Platform:      p,
		Token:         reg.Token,
		WebsitePushID: reg.WebsitePushID,
		SDKVersion:    reg.SDKVersion,
		Interests:     []string{},
		CreatedAt:     r.now().UTC(),
	}
	r.mu.Lock()
	r.devices[device.ID] = device
	r.mu.Unlock()

	r.logger.Info("device registered", "device_id", device.ID, "platform", string(p))
	return device.clone(), nil
}

// lookup must be called with r.mu held.
func (r *Registry) lookup(platform, deviceID string) (*Device, error) {
	p, err := parsePlatform(platform)
	if err != nil {
		return nil, err
	}
	device, ok := r.devices[deviceID]
	if !ok || device.Platform != p {
		return nil, ErrDeviceNotFound
	}
	return device, nil
}

// Device returns a copy of one device.
func (r *Registry) Device(platform, deviceID string) (Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	device, err := r.lookup(platform, deviceID)
	if err != nil {
		return Device{}, err
	}
	return device.clone(), nil
}

// DeleteDevice removes a device.
func (r *Registry) DeleteDevice(platform, deviceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.lookup(platform, deviceID); err != nil {
		return err
	}
	delete(r.devices, deviceID)
	r.logger.Info("device deleted", "device_id", deviceID)
	return nil
}

func (r *Registry) UpdateMetadata(platform, deviceID, sdkVersion string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	device, err := r.lookup(platform, deviceID)
	if err != nil {
		return err
	}
	device.SDKVersion = sdkVersion
	return nil
}

// SetUserID binds the device to the user asserted by token.
func (r *Registry) SetUserID(platform, deviceID, token string) (string, error) {
	userID, err := r.VerifyToken(token)
	if err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	device, err := r.lookup(platform, deviceID)
	if err != nil {
		return "", err
	}
	if device.UserID != "" && device.UserID != userID {
		return "", ErrUserConflict
	}
	device.UserID = userID
	return userID, nil
}

func (r *Registry) AddInterest(platform, deviceID, interest string) error {
	if err := interests.ValidateName(interest); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	device, err := r.lookup(platform, deviceID)
	if err != nil {
		return err
	}
	if slices.Contains(device.Interests, interest) {
		return nil
	}
	if len(device.Interests) >= interests.MaxInterests {
		return interests.ErrTooManyInterests
	}
	device.Interests = append(device.Interests, interest)
	return nil
}

func (r *Registry) RemoveInterest(platform, deviceID, interest string) error {
	if err := interests.ValidateName(interest); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	device, err := r.lookup(platform, deviceID)
	if err != nil {
		return err
	}
	device.Interests = slices.DeleteFunc(device.Interests, func(name string) bool { return name == interest })
	return nil
}

// Interests returns the device's interests sorted by name.
func (r *Registry) Interests(platform, deviceID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	device, err := r.lookup(platform, deviceID)
	if err != nil {
		return nil, err
	}
	out := slices.Clone(device.Interests)
	if out == nil {
		out = []string{}
	}
	sort.Strings(out)
	return out, nil
}

// SetInterests replaces the device's interests.
func (r *Registry) SetInterests(platform, deviceID string, names []string) error {
	unique, err := interests.Normalize(names)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	device, err := r.lookup(platform, deviceID)
	if err != nil {
		return err
	}
	device.Interests = unique
	return nil
}

// Devices returns every device sorted by ID.
func (r *Registry) Devices() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Device, 0, len(r.devices))
	for _, device := range r.devices {
		out = append(out, device.clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

// Deliverer hands a payload to one device's push transport.
type Deliverer interface {
	Deliver(ctx context.Context, device Device, payload []byte) error
}

// PublishResult summarises one publish.
type PublishResult struct {
	PublishID string `json:"publishId"`
	Targeted  int    `json:"targeted"`
	Delivered int    `json:"delivered"`
}

// Publish delivers payload once to every device subscribed to any of the
// given interests.
func (r *Registry) Publish(ctx context.Context, names []string, payload []byte, deliverer Deliverer) (PublishResult, error) {
	if len(names) == 0 {
		return PublishResult{}, ErrNoInterests
	}
	if len(names) > MaxPublishInterests {
		return PublishResult{}, ErrTooManyPublishInterests
	}
	for _, name := range names {
		if err := interests.ValidateName(name); err != nil {
			return PublishResult{}, err
		}
	}

	var targets []Device
	r.mu.RLock()
	for _, device := range r.devices {
		for _, name := range names {
			if slices.Contains(device.Interests, name) {
				targets = append(targets, device.clone())
				break
			}
		}
	}
	r.mu.RUnlock()

	result := PublishResult{PublishID: "pubid-" + uuid.NewString(), Targeted: len(targets)}
	for _, device := range targets {
		if err := deliverer.Deliver(ctx, device, payload); err != nil {
			r.logger.Debug("push delivery failed", "device_id", device.ID, "err", err)
			continue
		}
		result.Delivered++
	}
	r.logger.Info("publish completed",
		"publish_id", result.PublishID,
		"targeted", result.Targeted,
		"delivered", result.Delivered,
	)
	return result, nil
}
