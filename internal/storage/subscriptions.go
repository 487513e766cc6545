package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SubscriptionRow is a locally held push subscription keyed by scope.
type SubscriptionRow struct {
	Scope                string
	Endpoint             string
	P256DH               string
	Auth                 string
	ApplicationServerKey string
	CreatedAt            time.Time
}

// LoadSubscription returns ErrNotFound when scope has no subscription.
func (r *Repository) LoadSubscription(ctx context.Context, scope string) (SubscriptionRow, error) {
	var (
		row       SubscriptionRow
		createdAt string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT scope, endpoint, p256dh, auth, application_server_key, created_at
		FROM push_subscriptions
		WHERE scope = ?`, scope).
		Scan(&row.Scope, &row.Endpoint, &row.P256DH, &row.Auth, &row.ApplicationServerKey, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SubscriptionRow{}, ErrNotFound
		}
		return SubscriptionRow{}, err
	}
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		row.CreatedAt = ts.UTC()
	}
	return row, nil
}

func (r *Repository) SaveSubscription(ctx context.Context, row SubscriptionRow) error {
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO push_subscriptions (scope, endpoint, p256dh, auth, application_server_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(scope) DO UPDATE SET
			endpoint=excluded.endpoint,
			p256dh=excluded.p256dh,
			auth=excluded.auth,
			application_server_key=excluded.application_server_key,
			created_at=excluded.created_at`,
		row.Scope, row.Endpoint, row.P256DH, row.Auth, row.ApplicationServerKey,
		row.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// DeleteSubscription reports whether a row was removed.
func (r *Repository) DeleteSubscription(ctx context.Context, scope string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM push_subscriptions WHERE scope = ?`, scope)
	if err != nil {
		return false, err
	}
	rows, _ := res.RowsAffected()
	return rows > 0, nil
}

// LoadPermission returns ErrNotFound when no permission was ever recorded.
func (r *Repository) LoadPermission(ctx context.Context, scope string) (string, error) {
	var permission string
	err := r.db.QueryRowContext(ctx, `SELECT permission FROM push_permissions WHERE scope = ?`, scope).Scan(&permission)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return permission, nil
}

func (r *Repository) SavePermission(ctx context.Context, scope, permission string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO push_permissions (scope, permission, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(scope) DO UPDATE SET
			permission=excluded.permission,
			updated_at=excluded.updated_at`, scope, permission, nowString())
	return err
}
