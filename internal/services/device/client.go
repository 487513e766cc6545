package device

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	devicedomain "github.com/pushbeams/beams-device/internal/domain/device"
	"github.com/pushbeams/beams-device/internal/model"
	"github.com/pushbeams/beams-device/internal/registrar"
)

var _ devicedomain.Service = (*Client)(nil)

// Client keeps one device registered with the Beams registrar and keeps
// the persisted record consistent with the platform push subscription.
type Client struct {
	instanceID string
	store      devicedomain.Store
	registrar  Registrar
	platform   pushPlatform
	sdkVersion string
	userAgent  string
	logger     *slog.Logger

	ready   chan struct{}
	initErr error

	// mu serializes every public operation from reconcile to completion.
	mu     sync.Mutex
	record model.DeviceRecord
	// staleRecord is set when the registrar deleted the device but the
	// store still holds it; reconcile clears it before anything else.
	staleRecord bool
}

// New validates cfg and starts asynchronous initialization. Configuration
// errors are returned immediately; initialization errors are returned by
// every subsequent operation.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	platform, err := cfg.selectPlatform()
	if err != nil {
		return nil, err
	}

	c := &Client{
		instanceID: cfg.InstanceID,
		store:      cfg.Store,
		registrar:  cfg.Registrar,
		platform:   platform,
		sdkVersion: cfg.SDKVersion,
		userAgent:  cfg.UserAgent,
		logger:     cfg.Logger.With("instance_id", cfg.InstanceID, "platform", string(platform.name())),
		ready:      make(chan struct{}),
		record:     model.EmptyDeviceRecord(cfg.InstanceID),
	}
	go c.init(context.WithoutCancel(ctx))
	return c, nil
}

func (c *Client) init(ctx context.Context) {
	defer close(c.ready)
	if err := c.initialize(ctx); err != nil {
		c.logger.Error("device client initialization failed", "err", err)
		c.initErr = err
	}
}

func (c *Client) initialize(ctx context.Context) error {
	if err := c.store.Connect(ctx); err != nil {
		return fmt.Errorf("connect device state store: %w", err)
	}
	if err := c.platform.prepare(ctx); err != nil {
		return fmt.Errorf("prepare %s push: %w", c.platform.name(), err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.reconcile(ctx); err != nil {
		return err
	}
	if c.record.Registered() {
		c.refreshMetadata(ctx)
	}
	return nil
}

// Ready blocks until initialization finishes and returns its error.
func (c *Client) Ready(ctx context.Context) error {
	select {
	case <-c.ready:
		return c.initErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// enter waits for initialization and reconciles. On success the caller
// holds c.mu and must release it.
func (c *Client) enter(ctx context.Context) error {
	if err := c.Ready(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	if err := c.reconcile(ctx); err != nil {
		c.mu.Unlock()
		return err
	}
	return nil
}

// reconcile loads the stored record and discards it when its token no
// longer matches the platform subscription.
func (c *Client) reconcile(ctx context.Context) error {
	if c.staleRecord {
		if err := c.store.Clear(ctx); err != nil {
			return fmt.Errorf("clear deleted device state: %w", err)
		}
		c.staleRecord = false
	}
	record, err := c.store.Read(ctx)
	if err != nil {
		return fmt.Errorf("read device state: %w", err)
	}
	actual, err := c.platform.currentToken(ctx)
	if err != nil {
		return fmt.Errorf("read %s push token: %w", c.platform.name(), err)
	}
	if !model.SameString(record.Token, actual) {
		c.logger.Info("push token changed outside the client, clearing device state",
			"device_id", model.StringValue(record.DeviceID))
		if err := c.store.Clear(ctx); err != nil {
			return fmt.Errorf("clear device state: %w", err)
		}
		record = model.EmptyDeviceRecord(c.instanceID)
	}
	c.record = record
	return nil
}

func (c *Client) refreshMetadata(ctx context.Context) {
	stored := c.record
	if model.StringValue(stored.LastSeenSDKVersion) == c.sdkVersion &&
		model.StringValue(stored.LastSeenUserAgent) == c.userAgent {
		return
	}
	deviceID := model.StringValue(stored.DeviceID)
	err := c.registrar.UpdateMetadata(ctx, c.platform.name(), deviceID, registrar.Metadata{SDKVersion: c.sdkVersion})
	if err != nil {
		c.logger.Warn("device metadata refresh failed", "device_id", deviceID, "err", err)
		return
	}
	stored.LastSeenSDKVersion = model.StringPtr(c.sdkVersion)
	stored.LastSeenUserAgent = model.StringPtr(c.userAgent)
	if err := c.store.Write(ctx, stored); err != nil {
		c.logger.Warn("persist device metadata failed", "device_id", deviceID, "err", err)
		return
	}
	c.record = stored
}

// Start registers the device unless it is already registered and returns
// the resulting identity.
func (c *Client) Start(ctx context.Context) (model.Identity, error) {
	if err := c.enter(ctx); err != nil {
		return model.Identity{}, err
	}
	defer c.mu.Unlock()

	if c.record.Registered() {
		return c.identity(), nil
	}
	if err := c.register(ctx); err != nil {
		return model.Identity{}, err
	}
	return c.identity(), nil
}

// register subscribes, registers with the registrar and persists the
// result. Nothing is persisted unless every step succeeds.
func (c *Client) register(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	token, err := c.platform.subscribe(ctx)
	if err != nil {
		return err
	}
	metadata := registrar.Metadata{SDKVersion: c.sdkVersion}
	deviceID, err := c.registrar.RegisterDevice(ctx, c.platform.name(), c.platform.registration(token, metadata))
	if err != nil {
		return fmt.Errorf("register device: %w", err)
	}
	record := model.DeviceRecord{
		InstanceID:         c.instanceID,
		DeviceID:           model.StringPtr(deviceID),
		Token:              model.StringPtr(token),
		LastSeenSDKVersion: model.StringPtr(c.sdkVersion),
		LastSeenUserAgent:  model.StringPtr(c.userAgent),
	}
	if err := c.store.Write(ctx, record); err != nil {
		return fmt.Errorf("persist device state: %w", err)
	}
	c.record = record
	c.logger.Info("device registered", "device_id", deviceID)
	return nil
}

// Stop deletes the device from the registrar and clears all local state.
// Stopping an unregistered client is a no-op.
func (c *Client) Stop(ctx context.Context) error {
	if err := c.enter(ctx); err != nil {
		return err
	}
	defer c.mu.Unlock()
	return c.stop(ctx)
}

func (c *Client) stop(ctx context.Context) error {
	if !c.record.Registered() {
		return nil
	}
	ctx = context.WithoutCancel(ctx)
	deviceID := model.StringValue(c.record.DeviceID)
	if err := c.registrar.DeleteDevice(ctx, c.platform.name(), deviceID); err != nil {
		return fmt.Errorf("delete device: %w", err)
	}
	c.record = model.EmptyDeviceRecord(c.instanceID)
	clearErr := c.store.Clear(ctx)
	if clearErr != nil {
		c.staleRecord = true
	}
	if err := c.platform.clear(ctx); err != nil {
		c.logger.Debug("push unsubscribe failed", "err", err)
	}
	if clearErr != nil {
		return fmt.Errorf("clear device state: %w", clearErr)
	}
	c.logger.Info("device stopped", "device_id", deviceID)
	return nil
}

// ClearAllState stops the device and registers a fresh one.
func (c *Client) ClearAllState(ctx context.Context) (model.Identity, error) {
	if err := c.enter(ctx); err != nil {
		return model.Identity{}, err
	}
	defer c.mu.Unlock()

	if err := c.stop(ctx); err != nil {
		return model.Identity{}, err
	}
	if err := c.register(ctx); err != nil {
		return model.Identity{}, err
	}
	return c.identity(), nil
}

// SetUserID binds the registered device to userID. Setting the same user
// again succeeds without contacting the registrar.
func (c *Client) SetUserID(ctx context.Context, userID string, issuer devicedomain.TokenIssuer) error {
	if err := c.enter(ctx); err != nil {
		return err
	}
	defer c.mu.Unlock()

	if !c.record.Registered() {
		return fmt.Errorf("could not set user ID: %w", devicedomain.ErrNotStarted)
	}
	if userID == "" {
		return devicedomain.ErrUserIDEmpty
	}
	if issuer == nil {
		return devicedomain.ErrTokenIssuerRequired
	}
	if current := model.StringValue(c.record.UserID); current != "" {
		if current == userID {
			return nil
		}
		return devicedomain.ErrUserIDChange
	}

	ctx = context.WithoutCancel(ctx)
	token, err := issuer.FetchToken(ctx, userID)
	if err != nil {
		return fmt.Errorf("fetch beams token: %w", err)
	}
	deviceID := model.StringValue(c.record.DeviceID)
	if err := c.registrar.SetUserID(ctx, c.platform.name(), deviceID, token); err != nil {
		return fmt.Errorf("set user ID: %w", err)
	}
	record := c.record
	record.UserID = model.StringPtr(userID)
	if err := c.store.Write(ctx, record); err != nil {
		return fmt.Errorf("persist user ID: %w", err)
	}
	c.record = record
	c.logger.Info("device bound to user", "device_id", deviceID, "user_id", userID)
	return nil
}

// RegistrationState combines platform permission with local registration.
func (c *Client) RegistrationState(ctx context.Context) (model.RegistrationState, error) {
	if err := c.enter(ctx); err != nil {
		return "", err
	}
	defer c.mu.Unlock()

	permission, err := c.platform.permission(ctx)
	if err != nil {
		return "", fmt.Errorf("read push permission: %w", err)
	}
	return model.DeriveRegistrationState(permission, c.record.Registered()), nil
}

// DeviceID returns the registrar device ID, or "" when not registered.
func (c *Client) DeviceID(ctx context.Context) (string, error) {
	id, err := c.Identity(ctx)
	return id.DeviceID, err
}

// Token returns the push token, or "" when not registered.
func (c *Client) Token(ctx context.Context) (string, error) {
	id, err := c.Identity(ctx)
	return id.Token, err
}

// UserID returns the bound user, or "" when none.
func (c *Client) UserID(ctx context.Context) (string, error) {
	id, err := c.Identity(ctx)
	return id.UserID, err
}

// Identity returns the reconciled identity.
func (c *Client) Identity(ctx context.Context) (model.Identity, error) {
	if err := c.enter(ctx); err != nil {
		return model.Identity{}, err
	}
	defer c.mu.Unlock()
	return c.identity(), nil
}

func (c *Client) identity() model.Identity {
	return model.Identity{
		InstanceID: c.instanceID,
		DeviceID:   model.StringValue(c.record.DeviceID),
		Token:      model.StringValue(c.record.Token),
		UserID:     model.StringValue(c.record.UserID),
	}
}

// Platform reports the push platform selected at construction.
func (c *Client) Platform() model.Platform { return c.platform.name() }

// InstanceID returns the configured registry instance.
func (c *Client) InstanceID() string { return c.instanceID }
