// Package beams keeps a device registered for Beams push notifications and
// consistent with its platform push subscription and persisted state.
package beams

import (
	"context"
	"log/slog"

	devicedomain "github.com/pushbeams/beams-device/internal/domain/device"
	"github.com/pushbeams/beams-device/internal/interests"
	"github.com/pushbeams/beams-device/internal/model"
	"github.com/pushbeams/beams-device/internal/push"
	"github.com/pushbeams/beams-device/internal/push/local"
	"github.com/pushbeams/beams-device/internal/registrar"
	"github.com/pushbeams/beams-device/internal/services/device"
	"github.com/pushbeams/beams-device/internal/storage"
	"github.com/pushbeams/beams-device/internal/worker"
)

// Version is the SDK version reported to the registrar.
const Version = device.SDKVersion

type (
	Client             = device.Client
	Config             = device.Config
	WebPushConfig      = device.WebPushConfig
	PlatformPushConfig = device.PlatformPushConfig
	Registrar          = device.Registrar

	Store       = devicedomain.Store
	TokenIssuer = devicedomain.TokenIssuer

	DeviceRecord      = model.DeviceRecord
	Identity          = model.Identity
	Permission        = model.Permission
	Platform          = model.Platform
	RegistrationState = model.RegistrationState

	SubscriptionManager = push.SubscriptionManager
	PermissionAuthority = push.PermissionAuthority
	PermissionResult    = push.PermissionResult
	Subscription        = push.Subscription

	TokenProvider        = registrar.TokenProvider
	TokenProviderOptions = registrar.TokenProviderOptions
	StatusError          = registrar.StatusError
	ValidationError      = interests.ValidationError

	Database            = storage.Repository
	DeviceStore         = storage.DeviceStore
	LocalPushManager    = local.Manager
	WorkerContext       = worker.Context
	WorkerConfig        = worker.Config
	WorkerCallbacks     = worker.Callbacks
	Notification        = worker.Notification
	NotificationPayload = worker.Payload
	PushListener        = worker.Listener
)

const (
	PermissionPromptRequired       = model.RegistrationStatePermissionPromptRequired
	PermissionGrantedNotRegistered = model.RegistrationStateGrantedNotRegistered
	PermissionGrantedRegistered    = model.RegistrationStateGrantedRegistered
	PermissionDenied               = model.RegistrationStatePermissionDenied
)

var (
	ErrInstanceIDRequired    = devicedomain.ErrInstanceIDRequired
	ErrUnsupportedPlatform   = devicedomain.ErrUnsupportedPlatform
	ErrServiceWorkerScope    = devicedomain.ErrServiceWorkerScope
	ErrWebsitePushIDRequired = devicedomain.ErrWebsitePushIDRequired
	ErrStoreRequired         = devicedomain.ErrStoreRequired
	ErrNotStarted            = devicedomain.ErrNotStarted
	ErrUserIDChange          = devicedomain.ErrUserIDChange
	ErrUserIDEmpty           = devicedomain.ErrUserIDEmpty
	ErrTokenIssuerRequired   = devicedomain.ErrTokenIssuerRequired
	ErrPermissionNotGranted  = devicedomain.ErrPermissionNotGranted

	ErrInterestRequired   = interests.ErrNameRequired
	ErrForbiddenCharacter = interests.ErrForbiddenCharacter
	ErrInterestTooLong    = interests.ErrNameTooLong
	ErrTooManyInterests   = interests.ErrTooManyInterests

	ErrMissingNotification = worker.ErrMissingNotification
)

// New validates cfg and returns a client whose initialization continues in
// the background. See Client.Ready.
func New(ctx context.Context, cfg Config) (*Client, error) {
	return device.New(ctx, cfg)
}

// NewTokenProvider returns a TokenIssuer backed by the application's auth endpoint.
func NewTokenProvider(opts TokenProviderOptions) *TokenProvider {
	return registrar.NewTokenProvider(opts)
}

// OpenDatabase opens the sqlite file at path, applying the schema. Each
// instance gets its Store from Database.DeviceStore.
func OpenDatabase(ctx context.Context, path string, logger *slog.Logger) (*Database, error) {
	return storage.New(ctx, path, logger)
}

// NewLocalPushManager returns a SubscriptionManager that keeps its
// subscription in db and issues endpoints under relayURL.
func NewLocalPushManager(db *Database, scope, relayURL string) *LocalPushManager {
	return local.New(db, scope, relayURL)
}

// NewWorkerContext returns the handler for pushes and notification clicks.
func NewWorkerContext(cfg WorkerConfig, callbacks WorkerCallbacks) *WorkerContext {
	return worker.NewContext(cfg, callbacks)
}

// NewPushListener feeds pushes relayed to endpoint into w.
func NewPushListener(w *WorkerContext, endpoint string) *PushListener {
	return worker.NewListener(w, endpoint)
}
