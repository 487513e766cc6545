package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	devicedomain "github.com/pushbeams/beams-device/internal/domain/device"
	"github.com/pushbeams/beams-device/internal/model"
)

func newRepo(t *testing.T) *Repository {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo, err := New(context.Background(), filepath.Join(t.TempDir(), "beams.db"), logger)
	if err != nil {
		t.Fatalf("create storage: %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})
	return repo
}

func TestDeviceStoreRequiresConnect(t *testing.T) {
	store := newRepo(t).DeviceStore("instance-a")

	if _, err := store.Read(context.Background()); !errors.Is(err, devicedomain.ErrStoreNotConnected) {
		t.Fatalf("Read() error = %v, want ErrStoreNotConnected", err)
	}
	if err := store.Clear(context.Background()); !errors.Is(err, devicedomain.ErrStoreNotConnected) {
		t.Fatalf("Clear() error = %v, want ErrStoreNotConnected", err)
	}
}

func TestDeviceStoreConnectCreatesEmptyRecord(t *testing.T) {
	ctx := context.Background()
	store := newRepo(t).DeviceStore("instance-a")

	for i := 0; i < 2; i++ {
		if err := store.Connect(ctx); err != nil {
			t.Fatalf("Connect() #%d error: %v", i, err)
		}
	}
	record, err := store.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if record.InstanceID != "instance-a" {
		t.Fatalf("InstanceID = %q, want %q", record.InstanceID, "instance-a")
	}
	if record.DeviceID != nil || record.Token != nil || record.UserID != nil {
		t.Fatalf("expected all-null record, got %+v", record)
	}
}

func TestDeviceStoreWriteReadClear(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	store := repo.DeviceStore("instance-a")
	if err := store.Connect(ctx); err != nil {
		t.Fatalf("Connect() error: %v", err)
	}

	want := model.DeviceRecord{
		DeviceID:           model.StringPtr("web-1"),
		Token:              model.StringPtr("tok"),
		UserID:             model.StringPtr("alice"),
		LastSeenSDKVersion: model.StringPtr("1.0.0"),
		LastSeenUserAgent:  model.StringPtr("beamsctl/1.0.0"),
	}
	if err := store.Write(ctx, want); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	got, err := store.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if model.StringValue(got.DeviceID) != "web-1" || model.StringValue(got.Token) != "tok" || model.StringValue(got.UserID) != "alice" {
		t.Fatalf("unexpected record after write: %+v", got)
	}
	if got.InstanceID != "instance-a" {
		t.Fatalf("InstanceID = %q, want %q", got.InstanceID, "instance-a")
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	got, err = store.Read(ctx)
	if err != nil {
		t.Fatalf("Read() after clear error: %v", err)
	}
	if got.DeviceID != nil || got.Token != nil || got.UserID != nil || got.LastSeenSDKVersion != nil {
		t.Fatalf("expected all-null record after clear, got %+v", got)
	}

	var rows int
	if err := repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM beams WHERE instance_id = ?`, "instance-a").Scan(&rows); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if rows != 1 {
		t.Fatalf("rows after clear = %d, want 1", rows)
	}
}

func TestDeviceStoresAreNamespacedByInstance(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	first := repo.DeviceStore("instance-a")
	second := repo.DeviceStore("instance-b")
	for _, store := range []*DeviceStore{first, second} {
		if err := store.Connect(ctx); err != nil {
			t.Fatalf("Connect() error: %v", err)
		}
	}

	if err := first.Write(ctx, model.DeviceRecord{DeviceID: model.StringPtr("web-a"), Token: model.StringPtr("a")}); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	got, err := second.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if got.DeviceID != nil {
		t.Fatalf("instance-b DeviceID = %q, want nil", *got.DeviceID)
	}
}

func TestSubscriptionRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	if _, err := repo.LoadSubscription(ctx, "/"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("LoadSubscription() error = %v, want ErrNotFound", err)
	}
	row := SubscriptionRow{Scope: "/", Endpoint: "http://relay/push/1", P256DH: "p", Auth: "a", ApplicationServerKey: "k"}
	if err := repo.SaveSubscription(ctx, row); err != nil {
		t.Fatalf("SaveSubscription() error: %v", err)
	}
	got, err := repo.LoadSubscription(ctx, "/")
	if err != nil {
		t.Fatalf("LoadSubscription() error: %v", err)
	}
	if got.Endpoint != row.Endpoint || got.CreatedAt.IsZero() {
		t.Fatalf("unexpected subscription row: %+v", got)
	}

	removed, err := repo.DeleteSubscription(ctx, "/")
	if err != nil || !removed {
		t.Fatalf("DeleteSubscription() = %v, %v; want true, nil", removed, err)
	}
	removed, err = repo.DeleteSubscription(ctx, "/")
	if err != nil || removed {
		t.Fatalf("second DeleteSubscription() = %v, %v; want false, nil", removed, err)
	}
}

func TestPermissionRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	if _, err := repo.LoadPermission(ctx, "/"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("LoadPermission() error = %v, want ErrNotFound", err)
	}
	if err := repo.SavePermission(ctx, "/", "granted"); err != nil {
		t.Fatalf("SavePermission() error: %v", err)
	}
	if err := repo.SavePermission(ctx, "/", "denied"); err != nil {
		t.Fatalf("SavePermission() overwrite error: %v", err)
	}
	got, err := repo.LoadPermission(ctx, "/")
	if err != nil {
		t.Fatalf("LoadPermission() error: %v", err)
	}
	if got != "denied" {
		t.Fatalf("permission = %q, want %q", got, "denied")
	}
}
