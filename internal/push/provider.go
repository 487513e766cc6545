// Package push defines the platform push capabilities the device client
// consumes and the encoding of web push subscriptions into tokens.
package push

import (
	"context"
	"errors"

	"github.com/pushbeams/beams-device/internal/model"
)

var ErrPermissionDenied = errors.New("push permission denied")

// Keys holds the subscription's encryption material.
type Keys struct {
	P256DH string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Subscription mirrors the JSON form of a browser PushSubscription.
type Subscription struct {
	Endpoint       string `json:"endpoint"`
	ExpirationTime *int64 `json:"expirationTime"`
	Keys           Keys   `json:"keys"`
}

// SubscriptionManager is the web push capability (service worker push manager).
type SubscriptionManager interface {
	// Ready blocks until the manager can serve subscriptions.
	Ready(ctx context.Context) error
	// GetSubscription returns nil when there is no active subscription.
	GetSubscription(ctx context.Context) (*Subscription, error)
	Subscribe(ctx context.Context, applicationServerKey []byte) (*Subscription, error)
	// Unsubscribe is a no-op when there is no active subscription.
	Unsubscribe(ctx context.Context) error
	Permission(ctx context.Context) (model.Permission, error)
}

// PermissionResult is the platform push permission and device token pair.
// DeviceToken is empty unless Permission is granted.
type PermissionResult struct {
	Permission  model.Permission
	DeviceToken string
}

// PermissionAuthority is the platform push capability, keyed by website push ID.
type PermissionAuthority interface {
	Permission(ctx context.Context, websitePushID string) (PermissionResult, error)
	RequestPermission(ctx context.Context, serviceURL, websitePushID string, userInfo map[string]string) (PermissionResult, error)
}
