package device

import (
	"context"
	"fmt"

	devicedomain "github.com/pushbeams/beams-device/internal/domain/device"
	"github.com/pushbeams/beams-device/internal/model"
	"github.com/pushbeams/beams-device/internal/push"
	"github.com/pushbeams/beams-device/internal/registrar"
)

// Registrar is the remote device registry contract used by Client.
type Registrar interface {
	PublicKey(ctx context.Context) (string, error)
	RegisterDevice(ctx context.Context, platform model.Platform, reg registrar.DeviceRegistration) (string, error)
	DeleteDevice(ctx context.Context, platform model.Platform, deviceID string) error
	UpdateMetadata(ctx context.Context, platform model.Platform, deviceID string, metadata registrar.Metadata) error
	SetUserID(ctx context.Context, platform model.Platform, deviceID, token string) error
	AddInterest(ctx context.Context, platform model.Platform, deviceID, interest string) error
	RemoveInterest(ctx context.Context, platform model.Platform, deviceID, interest string) error
	Interests(ctx context.Context, platform model.Platform, deviceID string) ([]string, error)
	SetInterests(ctx context.Context, platform model.Platform, deviceID string, interests []string) error
}

type publicKeySource interface {
	PublicKey(ctx context.Context) (string, error)
}

// pushPlatform is the per-platform half of the lifecycle.
type pushPlatform interface {
	name() model.Platform
	prepare(ctx context.Context) error
	// currentToken returns nil when the platform has no active subscription.
	currentToken(ctx context.Context) (*string, error)
	// subscribe obtains a fresh token for registration.
	subscribe(ctx context.Context) (string, error)
	clear(ctx context.Context) error
	permission(ctx context.Context) (model.Permission, error)
	registration(token string, metadata registrar.Metadata) registrar.DeviceRegistration
}

type webPush struct {
	manager push.SubscriptionManager
	keys    publicKeySource
}

func (w *webPush) name() model.Platform { return model.PlatformWeb }

func (w *webPush) prepare(ctx context.Context) error {
	return w.manager.Ready(ctx)
}

func (w *webPush) currentToken(ctx context.Context) (*string, error) {
	sub, err := w.manager.GetSubscription(ctx)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, nil
	}
	token, err := push.EncodeToken(sub)
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// subscribe drops any existing subscription first since it may be bound
// to a different application server key.
func (w *webPush) subscribe(ctx context.Context) (string, error) {
	publicKey, err := w.keys.PublicKey(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch vapid public key: %w", err)
	}
	key, err := push.DecodeApplicationServerKey(publicKey)
	if err != nil {
		return "", err
	}
	if err := w.manager.Unsubscribe(ctx); err != nil {
		return "", fmt.Errorf("clear existing push subscription: %w", err)
	}
	sub, err := w.manager.Subscribe(ctx, key)
	if err != nil {
		return "", fmt.Errorf("subscribe to web push: %w", err)
	}
	return push.EncodeToken(sub)
}

func (w *webPush) clear(ctx context.Context) error {
	return w.manager.Unsubscribe(ctx)
}

func (w *webPush) permission(ctx context.Context) (model.Permission, error) {
	return w.manager.Permission(ctx)
}

func (w *webPush) registration(token string, metadata registrar.Metadata) registrar.DeviceRegistration {
	return registrar.DeviceRegistration{Token: token, Metadata: metadata}
}

type platformPush struct {
	authority     push.PermissionAuthority
	websitePushID string
	serviceURL    string
	userInfo      map[string]string
}

func (p *platformPush) name() model.Platform { return model.PlatformSafari }

func (p *platformPush) prepare(context.Context) error { return nil }

func (p *platformPush) currentToken(ctx context.Context) (*string, error) {
	res, err := p.authority.Permission(ctx, p.websitePushID)
	if err != nil {
		return nil, err
	}
	return model.StringPtr(res.DeviceToken), nil
}

// subscribe prompts only while permission is undecided; a prior decision
// cannot be asked again.
func (p *platformPush) subscribe(ctx context.Context) (string, error) {
	res, err := p.authority.Permission(ctx, p.websitePushID)
	if err != nil {
		return "", err
	}
	if res.Permission == model.PermissionDefault {
		res, err = p.authority.RequestPermission(ctx, p.serviceURL, p.websitePushID, p.userInfo)
		if err != nil {
			return "", fmt.Errorf("request push permission: %w", err)
		}
	}
	if res.Permission != model.PermissionGranted {
		return "", fmt.Errorf("%w (permission is %s)", devicedomain.ErrPermissionNotGranted, res.Permission)
	}
	if res.DeviceToken == "" {
		return "", fmt.Errorf("platform granted permission without a device token")
	}
	return res.DeviceToken, nil
}

// clear is a no-op: platform device tokens cannot be revoked by the page.
func (p *platformPush) clear(context.Context) error { return nil }

func (p *platformPush) permission(ctx context.Context) (model.Permission, error) {
	res, err := p.authority.Permission(ctx, p.websitePushID)
	if err != nil {
		return "", err
	}
	return res.Permission, nil
}

func (p *platformPush) registration(token string, metadata registrar.Metadata) registrar.DeviceRegistration {
	return registrar.DeviceRegistration{Token: token, WebsitePushID: p.websitePushID, Metadata: metadata}
}
