package storage

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	devicedomain "github.com/pushbeams/beams-device/internal/domain/device"
	"github.com/pushbeams/beams-device/internal/model"
)

var ErrNotFound = errors.New("not found")

// DeviceStore is the sqlite-backed device record store for one instance.
type DeviceStore struct {
	repo       *Repository
	instanceID string

	mu        sync.Mutex
	connected bool
}

// DeviceStore returns the store namespaced by instanceID. No I/O happens
// until Connect.
func (r *Repository) DeviceStore(instanceID string) *DeviceStore {
	return &DeviceStore{repo: r, instanceID: instanceID}
}

// Connect ensures a record exists for the instance, writing an all-null
// record the first time. Safe to call repeatedly.
func (s *DeviceStore) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connected {
		return nil
	}
	if _, err := s.repo.db.ExecContext(ctx, `
		INSERT INTO beams (instance_id, device_id, token, user_id, last_seen_sdk_version, last_seen_user_agent, updated_at)
		VALUES (?, NULL, NULL, NULL, NULL, NULL, ?)
		ON CONFLICT(instance_id) DO NOTHING`, s.instanceID, nowString()); err != nil {
		return err
	}
	s.connected = true
	return nil
}

func (s *DeviceStore) isConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Read returns the instance record. A record removed underneath the store
// reads as all-null.
func (s *DeviceStore) Read(ctx context.Context) (model.DeviceRecord, error) {
	if !s.isConnected() {
		return model.DeviceRecord{}, devicedomain.ErrStoreNotConnected
	}
	record, err := s.repo.loadDeviceRecord(ctx, s.instanceID)
	if errors.Is(err, ErrNotFound) {
		return model.EmptyDeviceRecord(s.instanceID), nil
	}
	return record, err
}

// Write replaces the instance record.
func (s *DeviceStore) Write(ctx context.Context, record model.DeviceRecord) error {
	if !s.isConnected() {
		return devicedomain.ErrStoreNotConnected
	}
	record.InstanceID = s.instanceID
	return s.repo.upsertDeviceRecord(ctx, record)
}

// Clear writes the all-null record; the namespace row is kept.
func (s *DeviceStore) Clear(ctx context.Context) error {
	return s.Write(ctx, model.EmptyDeviceRecord(s.instanceID))
}

func (r *Repository) loadDeviceRecord(ctx context.Context, instanceID string) (model.DeviceRecord, error) {
	var (
		record                                  model.DeviceRecord
		deviceID, token, userID, sdkVersion, ua sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT instance_id, device_id, token, user_id, last_seen_sdk_version, last_seen_user_agent
		FROM beams
		WHERE instance_id = ?`, instanceID).
		Scan(&record.InstanceID, &deviceID, &token, &userID, &sdkVersion, &ua)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.DeviceRecord{}, ErrNotFound
		}
		return model.DeviceRecord{}, err
	}
	record.DeviceID = strPtr(deviceID)
	record.Token = strPtr(token)
	record.UserID = strPtr(userID)
	record.LastSeenSDKVersion = strPtr(sdkVersion)
	record.LastSeenUserAgent = strPtr(ua)
	return record, nil
}

func (r *Repository) upsertDeviceRecord(ctx context.Context, record model.DeviceRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO beams (instance_id, device_id, token, user_id, last_seen_sdk_version, last_seen_user_agent, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(instance_id) DO UPDATE SET
			device_id=excluded.device_id,
			token=excluded.token,
			user_id=excluded.user_id,
			last_seen_sdk_version=excluded.last_seen_sdk_version,
			last_seen_user_agent=excluded.last_seen_user_agent,
			updated_at=excluded.updated_at`,
		record.InstanceID,
		fromStringPtr(record.DeviceID),
		fromStringPtr(record.Token),
		fromStringPtr(record.UserID),
		fromStringPtr(record.LastSeenSDKVersion),
		fromStringPtr(record.LastSeenUserAgent),
		nowString(),
	)
	return err
}
