// Package local is a sqlite-backed web push subscription manager. It plays
// the browser's part for command-line and test clients: subscriptions point
// at a push relay endpoint that a worker.Listener can attach to.
package local

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pushbeams/beams-device/internal/model"
	"github.com/pushbeams/beams-device/internal/push"
	"github.com/pushbeams/beams-device/internal/storage"
)

// ErrKeyMismatch mirrors the browser refusing to subscribe with a new
// application server key while an old subscription is active.
var ErrKeyMismatch = errors.New("a subscription with a different application server key already exists")

type Manager struct {
	repo     *storage.Repository
	scope    string
	relayURL string
}

// New returns a manager for scope whose endpoints live under relayURL.
func New(repo *storage.Repository, scope, relayURL string) *Manager {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		scope = "/"
	}
	return &Manager{repo: repo, scope: scope, relayURL: strings.TrimSuffix(strings.TrimSpace(relayURL), "/")}
}

func (m *Manager) Ready(ctx context.Context) error {
	if m.repo == nil {
		return fmt.Errorf("local push manager has no storage")
	}
	if m.relayURL == "" {
		return fmt.Errorf("local push manager has no relay url")
	}
	return ctx.Err()
}

func (m *Manager) Permission(ctx context.Context) (model.Permission, error) {
	raw, err := m.repo.LoadPermission(ctx, m.scope)
	if errors.Is(err, storage.ErrNotFound) {
		return model.PermissionDefault, nil
	}
	if err != nil {
		return "", err
	}
	return model.ParsePermission(raw)
}

// SetPermission records the user's decision. Anything but granted drops
// the active subscription, as browsers do when permission is revoked.
func (m *Manager) SetPermission(ctx context.Context, permission model.Permission) error {
	if err := m.repo.SavePermission(ctx, m.scope, string(permission)); err != nil {
		return err
	}
	if permission != model.PermissionGranted {
		if _, err := m.repo.DeleteSubscription(ctx, m.scope); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) GetSubscription(ctx context.Context) (*push.Subscription, error) {
	row, err := m.repo.LoadSubscription(ctx, m.scope)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toSubscription(row), nil
}

func (m *Manager) Subscribe(ctx context.Context, applicationServerKey []byte) (*push.Subscription, error) {
	permission, err := m.Permission(ctx)
	if err != nil {
		return nil, err
	}
	if permission != model.PermissionGranted {
		return nil, fmt.Errorf("%w (permission is %s)", push.ErrPermissionDenied, permission)
	}

	key := base64.RawURLEncoding.EncodeToString(applicationServerKey)
	existing, err := m.repo.LoadSubscription(ctx, m.scope)
	switch {
	case err == nil && existing.ApplicationServerKey == key:
		return toSubscription(existing), nil
	case err == nil:
		return nil, ErrKeyMismatch
	case !errors.Is(err, storage.ErrNotFound):
		return nil, err
	}

	p256dh, err := randomKey(65, 0x04)
	if err != nil {
		return nil, err
	}
	auth, err := randomKey(16, 0)
	if err != nil {
		return nil, err
	}
	row := storage.SubscriptionRow{
		Scope:                m.scope,
		Endpoint:             m.relayURL + "/push/" + uuid.NewString(),
		P256DH:               p256dh,
		Auth:                 auth,
		ApplicationServerKey: key,
	}
	if err := m.repo.SaveSubscription(ctx, row); err != nil {
		return nil, err
	}
	return toSubscription(row), nil
}

func (m *Manager) Unsubscribe(ctx context.Context) error {
	_, err := m.repo.DeleteSubscription(ctx, m.scope)
	return err
}

func toSubscription(row storage.SubscriptionRow) *push.Subscription {
	return &push.Subscription{
		Endpoint: row.Endpoint,
		Keys:     push.Keys{P256DH: row.P256DH, Auth: row.Auth},
	}
}

func randomKey(size int, prefix byte) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	if prefix != 0 {
		buf[0] = prefix
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
