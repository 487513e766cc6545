package device

import (
	"context"
	"errors"
	"fmt"
	"sync"

	devicedomain "github.com/pushbeams/beams-device/internal/domain/device"
	"github.com/pushbeams/beams-device/internal/model"
	"github.com/pushbeams/beams-device/internal/push"
	"github.com/pushbeams/beams-device/internal/registrar"
)

type memoryStore struct {
	instanceID string
	mu         sync.Mutex
	connected  bool
	connectErr error
	clearErr   error
	record     model.DeviceRecord
	writes     int
}

func newMemoryStore(instanceID string) *memoryStore {
	return &memoryStore{instanceID: instanceID, record: model.EmptyDeviceRecord(instanceID)}
}

func (s *memoryStore) Connect(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connectErr != nil {
		return s.connectErr
	}
	s.connected = true
	return nil
}

func (s *memoryStore) Read(context.Context) (model.DeviceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return model.DeviceRecord{}, devicedomain.ErrStoreNotConnected
	}
	return s.record, nil
}

func (s *memoryStore) Write(_ context.Context, record model.DeviceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return devicedomain.ErrStoreNotConnected
	}
	s.record = record
	s.writes++
	return nil
}

func (s *memoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	err := s.clearErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.Write(ctx, model.EmptyDeviceRecord(s.instanceID))
}

func (s *memoryStore) failClear(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearErr = err
}

func (s *memoryStore) snapshot() model.DeviceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record
}

type fakeManager struct {
	mu           sync.Mutex
	permission   model.Permission
	sub          *push.Subscription
	subscribes   int
	unsubscribes int
	lastKey      []byte
	unsubErr     error
}

func newFakeManager() *fakeManager {
	return &fakeManager{permission: model.PermissionGranted}
}

func (m *fakeManager) Ready(context.Context) error { return nil }

func (m *fakeManager) GetSubscription(context.Context) (*push.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sub, nil
}

func (m *fakeManager) Subscribe(_ context.Context, key []byte) (*push.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.permission != model.PermissionGranted {
		return nil, push.ErrPermissionDenied
	}
	m.subscribes++
	m.lastKey = key
	m.sub = &push.Subscription{
		Endpoint: fmt.Sprintf("https://push.test/%d", m.subscribes),
		Keys:     push.Keys{P256DH: "p256dh", Auth: "auth"},
	}
	return m.sub, nil
}

func (m *fakeManager) Unsubscribe(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unsubscribes++
	if m.unsubErr != nil {
		return m.unsubErr
	}
	m.sub = nil
	return nil
}

func (m *fakeManager) Permission(context.Context) (model.Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.permission, nil
}

// rotate simulates the platform replacing the subscription behind the client.
func (m *fakeManager) rotate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sub = &push.Subscription{Endpoint: "https://push.test/rotated"}
}

func (m *fakeManager) token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sub == nil {
		return ""
	}
	token, _ := push.EncodeToken(m.sub)
	return token
}

type fakeAuthority struct {
	mu        sync.Mutex
	result    push.PermissionResult
	onRequest push.PermissionResult
	requests  int
}

// rotate simulates the platform issuing a new device token.
func (a *fakeAuthority) rotate(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.result.DeviceToken = token
}

func (a *fakeAuthority) Permission(context.Context, string) (push.PermissionResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result, nil
}

func (a *fakeAuthority) RequestPermission(context.Context, string, string, map[string]string) (push.PermissionResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requests++
	a.result = a.onRequest
	return a.result, nil
}

type fakeRegistrar struct {
	mu            sync.Mutex
	next          int
	calls         []string
	registrations []registrar.DeviceRegistration
	metadata      []registrar.Metadata
	userTokens    []string
	interests     map[string][]string
	failures      map[string]error
}

func newFakeRegistrar() *fakeRegistrar {
	return &fakeRegistrar{interests: map[string][]string{}, failures: map[string]error{}}
}

var errRegistrar = errors.New("registrar unavailable")

func (r *fakeRegistrar) record(call string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
	return r.failures[call]
}

func (r *fakeRegistrar) fail(call string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[call] = err
}

func (r *fakeRegistrar) count(call string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (r *fakeRegistrar) PublicKey(context.Context) (string, error) {
	if err := r.record("PublicKey"); err != nil {
		return "", err
	}
	return "BAEC", nil
}

func (r *fakeRegistrar) RegisterDevice(_ context.Context, platform model.Platform, reg registrar.DeviceRegistration) (string, error) {
	if err := r.record("RegisterDevice"); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.registrations = append(r.registrations, reg)
	return fmt.Sprintf("%s-device-%d", platform, r.next), nil
}

func (r *fakeRegistrar) DeleteDevice(context.Context, model.Platform, string) error {
	return r.record("DeleteDevice")
}

func (r *fakeRegistrar) UpdateMetadata(_ context.Context, _ model.Platform, _ string, md registrar.Metadata) error {
	if err := r.record("UpdateMetadata"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metadata = append(r.metadata, md)
	return nil
}

func (r *fakeRegistrar) SetUserID(_ context.Context, _ model.Platform, _ string, token string) error {
	if err := r.record("SetUserID"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userTokens = append(r.userTokens, token)
	return nil
}

func (r *fakeRegistrar) AddInterest(_ context.Context, _ model.Platform, deviceID, interest string) error {
	if err := r.record("AddInterest"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.interests[deviceID] = append(r.interests[deviceID], interest)
	return nil
}

func (r *fakeRegistrar) RemoveInterest(_ context.Context, _ model.Platform, deviceID, interest string) error {
	if err := r.record("RemoveInterest"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.interests[deviceID][:0]
	for _, name := range r.interests[deviceID] {
		if name != interest {
			kept = append(kept, name)
		}
	}
	r.interests[deviceID] = kept
	return nil
}

func (r *fakeRegistrar) Interests(_ context.Context, _ model.Platform, deviceID string) ([]string, error) {
	if err := r.record("Interests"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.interests[deviceID]...), nil
}

func (r *fakeRegistrar) SetInterests(_ context.Context, _ model.Platform, deviceID string, interests []string) error {
	if err := r.record("SetInterests"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.interests[deviceID] = append([]string(nil), interests...)
	return nil
}
