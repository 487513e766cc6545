package device

import (
	"context"

	"github.com/pushbeams/beams-device/internal/model"
)

// TokenIssuer returns a short-lived token asserting that userID owns the device.
type TokenIssuer interface {
	FetchToken(ctx context.Context, userID string) (string, error)
}

// TokenIssuerFunc adapts a function to TokenIssuer.
type TokenIssuerFunc func(ctx context.Context, userID string) (string, error)

// FetchToken calls f.
func (f TokenIssuerFunc) FetchToken(ctx context.Context, userID string) (string, error) {
	return f(ctx, userID)
}

// Service is the device lifecycle contract shared by every push platform.
type Service interface {
	Start(ctx context.Context) (model.Identity, error)
	Stop(ctx context.Context) error
	ClearAllState(ctx context.Context) (model.Identity, error)
	SetUserID(ctx context.Context, userID string, issuer TokenIssuer) error
	RegistrationState(ctx context.Context) (model.RegistrationState, error)

	DeviceID(ctx context.Context) (string, error)
	Token(ctx context.Context) (string, error)
	UserID(ctx context.Context) (string, error)

	AddDeviceInterest(ctx context.Context, interest string) error
	RemoveDeviceInterest(ctx context.Context, interest string) error
	GetDeviceInterests(ctx context.Context) ([]string, error)
	SetDeviceInterests(ctx context.Context, interests []string) error
	ClearDeviceInterests(ctx context.Context) error

	Platform() model.Platform
	InstanceID() string
}
