package beams

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	httpapi "github.com/pushbeams/beams-device/internal/http"
	"github.com/pushbeams/beams-device/internal/http/handlers"
	"github.com/pushbeams/beams-device/internal/model"
	"github.com/pushbeams/beams-device/internal/services/registry"
)

func TestNewRejectsMissingInstance(t *testing.T) {
	if _, err := New(context.Background(), Config{}); !errors.Is(err, ErrInstanceIDRequired) {
		t.Fatalf("New() error = %v, want ErrInstanceIDRequired", err)
	}
}

func TestNewTokenProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("user_id") != "alice" {
			http.Error(w, `{"error":"bad"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"jwt"}`))
	}))
	defer srv.Close()

	var issuer TokenIssuer = NewTokenProvider(TokenProviderOptions{URL: srv.URL})
	token, err := issuer.FetchToken(context.Background(), "alice")
	if err != nil {
		t.Fatalf("FetchToken() error: %v", err)
	}
	if token != "jwt" {
		t.Fatalf("FetchToken() = %q, want jwt", token)
	}
}

const testInstance = "df3c1965-e870-4bd6-8d75-fea56b26335f"

func TestClientOnDatabaseStore(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg, err := registry.New(testInstance, nil, logger)
	if err != nil {
		t.Fatalf("registry.New() error: %v", err)
	}
	relay := handlers.NewRelay(logger)
	srv := httptest.NewServer(httpapi.NewRouter(handlers.New(reg, relay, "", logger), relay))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "beams.db")
	db, err := OpenDatabase(ctx, path, nil)
	if err != nil {
		t.Fatalf("OpenDatabase() error: %v", err)
	}
	manager := NewLocalPushManager(db, "/", srv.URL)
	if err := manager.SetPermission(ctx, model.PermissionGranted); err != nil {
		t.Fatalf("SetPermission() error: %v", err)
	}

	var store Store = db.DeviceStore(testInstance)
	client, err := New(ctx, Config{
		InstanceID: testInstance,
		Store:      store,
		Endpoint:   srv.URL,
		WebPush:    &WebPushConfig{Manager: manager},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	identity, err := client.Start(ctx)
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if !identity.Registered() {
		t.Fatalf("Start() identity = %+v, want registered", identity)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	reopened, err := OpenDatabase(ctx, path, nil)
	if err != nil {
		t.Fatalf("OpenDatabase() reopen error: %v", err)
	}
	defer reopened.Close()
	restarted, err := New(ctx, Config{
		InstanceID: testInstance,
		Store:      reopened.DeviceStore(testInstance),
		Endpoint:   srv.URL,
		WebPush:    &WebPushConfig{Manager: NewLocalPushManager(reopened, "/", srv.URL)},
	})
	if err != nil {
		t.Fatalf("New() after reopen error: %v", err)
	}
	id, err := restarted.DeviceID(ctx)
	if err != nil {
		t.Fatalf("DeviceID() error: %v", err)
	}
	if id != identity.DeviceID {
		t.Fatalf("DeviceID() = %q, want %q", id, identity.DeviceID)
	}
}

func TestWorkerContext(t *testing.T) {
	ctx := context.Background()
	var shown Notification
	var opened string
	w := NewWorkerContext(WorkerConfig{}, WorkerCallbacks{
		Display: func(_ context.Context, n Notification) error {
			shown = n
			return nil
		},
		OpenWindow: func(_ context.Context, url string) error {
			opened = url
			return nil
		},
	})

	n, err := w.HandlePush(ctx, []byte(`{"notification":{"title":"Hi","deep_link":"https://example.com/x"}}`))
	if err != nil {
		t.Fatalf("HandlePush() error: %v", err)
	}
	if shown.Title != "Hi" {
		t.Fatalf("displayed title = %q, want Hi", shown.Title)
	}
	ok, err := w.HandleNotificationClick(ctx, n)
	if err != nil || !ok {
		t.Fatalf("HandleNotificationClick() = %v, %v, want true, nil", ok, err)
	}
	if opened != "https://example.com/x" {
		t.Fatalf("opened = %q, want deep link", opened)
	}

	if _, err := w.HandlePush(ctx, []byte(`{"data":{}}`)); !errors.Is(err, ErrMissingNotification) {
		t.Fatalf("HandlePush() error = %v, want ErrMissingNotification", err)
	}
}
