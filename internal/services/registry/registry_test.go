package registry

import (
	"context"
	"encoding/base64"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/pushbeams/beams-device/internal/interests"
)

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := New("instance-1", []byte("secret"), nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return r
}

type recordingDeliverer struct {
	delivered []string
	fail      map[string]bool
}

func (d *recordingDeliverer) Deliver(_ context.Context, device Device, _ []byte) error {
	if d.fail[device.ID] {
		return errors.New("offline")
	}
	d.delivered = append(d.delivered, device.ID)
	return nil
}

func TestVAPIDPublicKeyIsUncompressedP256(t *testing.T) {
	r := newRegistry(t)

	raw, err := base64.RawURLEncoding.DecodeString(r.VAPIDPublicKey())
	if err != nil {
		t.Fatalf("decode key: %v", err)
	}
	if len(raw) != 65 || raw[0] != 4 {
		t.Fatalf("key len=%d prefix=%d, want 65 bytes starting with 4", len(raw), raw[0])
	}
}

func TestRegisterDevice(t *testing.T) {
	r := newRegistry(t)

	device, err := r.RegisterDevice("web", Registration{Token: "tok", SDKVersion: "1.1.0"})
	if err != nil {
		t.Fatalf("RegisterDevice() error: %v", err)
	}
	if !regexp.MustCompile(`^web-[0-9a-f-]{36}$`).MatchString(device.ID) {
		t.Fatalf("device ID = %q, want web-<uuid>", device.ID)
	}
	if _, err := r.Device("safari", device.ID); !errors.Is(err, ErrDeviceNotFound) {
		t.Fatalf("Device(wrong platform) error = %v, want ErrDeviceNotFound", err)
	}

	tests := []struct {
		platform string
		reg      Registration
		want     error
	}{
		{"android", Registration{Token: "tok"}, ErrInvalidPlatform},
		{"web", Registration{}, ErrTokenRequired},
		{"safari", Registration{Token: "tok"}, ErrWebsitePushIDRequired},
	}
	for _, tt := range tests {
		if _, err := r.RegisterDevice(tt.platform, tt.reg); !errors.Is(err, tt.want) {
			t.Fatalf("RegisterDevice(%s, %+v) error = %v, want %v", tt.platform, tt.reg, err, tt.want)
		}
	}
}

func TestDeleteDevice(t *testing.T) {
	r := newRegistry(t)
	device, _ := r.RegisterDevice("web", Registration{Token: "tok"})

	if err := r.DeleteDevice("web", device.ID); err != nil {
		t.Fatalf("DeleteDevice() error: %v", err)
	}
	if err := r.DeleteDevice("web", device.ID); !errors.Is(err, ErrDeviceNotFound) {
		t.Fatalf("second DeleteDevice() error = %v, want ErrDeviceNotFound", err)
	}
}

func TestInterests(t *testing.T) {
	r := newRegistry(t)
	device, _ := r.RegisterDevice("web", Registration{Token: "tok"})

	for _, name := range []string{"zeta", "alpha", "alpha"} {
		if err := r.AddInterest("web", device.ID, name); err != nil {
			t.Fatalf("AddInterest(%q) error: %v", name, err)
		}
	}
	got, err := r.Interests("web", device.ID)
	if err != nil {
		t.Fatalf("Interests() error: %v", err)
	}
	if strings.Join(got, ",") != "alpha,zeta" {
		t.Fatalf("Interests() = %v, want [alpha zeta]", got)
	}

	if err := r.RemoveInterest("web", device.ID, "alpha"); err != nil {
		t.Fatalf("RemoveInterest() error: %v", err)
	}
	if err := r.SetInterests("web", device.ID, []string{"b", "a", "b"}); err != nil {
		t.Fatalf("SetInterests() error: %v", err)
	}
	got, _ = r.Interests("web", device.ID)
	if strings.Join(got, ",") != "a,b" {
		t.Fatalf("Interests() = %v, want [a b]", got)
	}
	if err := r.AddInterest("web", device.ID, "no spaces"); !errors.Is(err, interests.ErrForbiddenCharacter) {
		t.Fatalf("AddInterest(invalid) error = %v, want ErrForbiddenCharacter", err)
	}
}

func TestTokens(t *testing.T) {
	r := newRegistry(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	token, err := r.IssueToken("alice")
	if err != nil {
		t.Fatalf("IssueToken() error: %v", err)
	}
	userID, err := r.VerifyToken(token)
	if err != nil || userID != "alice" {
		t.Fatalf("VerifyToken() = %q, %v; want alice, nil", userID, err)
	}

	if _, err := r.VerifyToken(token + "x"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("VerifyToken(tampered) error = %v, want ErrUnauthorized", err)
	}
	other, _ := New("instance-1", []byte("other-secret"), nil)
	if _, err := other.VerifyToken(token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("VerifyToken(foreign) error = %v, want ErrUnauthorized", err)
	}

	now = now.Add(TokenTTL)
	if _, err := r.VerifyToken(token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("VerifyToken(expired) error = %v, want ErrUnauthorized", err)
	}
}

func TestSetUserID(t *testing.T) {
	r := newRegistry(t)
	device, _ := r.RegisterDevice("web", Registration{Token: "tok"})
	alice, _ := r.IssueToken("alice")
	bob, _ := r.IssueToken("bob")

	if _, err := r.SetUserID("web", device.ID, "garbage"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("SetUserID(garbage) error = %v, want ErrUnauthorized", err)
	}
	if got, err := r.SetUserID("web", device.ID, alice); err != nil || got != "alice" {
		t.Fatalf("SetUserID(alice) = %q, %v", got, err)
	}
	if _, err := r.SetUserID("web", device.ID, alice); err != nil {
		t.Fatalf("SetUserID(alice again) error: %v", err)
	}
	if _, err := r.SetUserID("web", device.ID, bob); !errors.Is(err, ErrUserConflict) {
		t.Fatalf("SetUserID(bob) error = %v, want ErrUserConflict", err)
	}
}

func TestPublish(t *testing.T) {
	r := newRegistry(t)
	a, _ := r.RegisterDevice("web", Registration{Token: "a"})
	b, _ := r.RegisterDevice("web", Registration{Token: "b"})
	c, _ := r.RegisterDevice("web", Registration{Token: "c"})
	_ = r.SetInterests("web", a.ID, []string{"donuts", "coffee"})
	_ = r.SetInterests("web", b.ID, []string{"coffee"})
	_ = r.SetInterests("web", c.ID, []string{"tea"})

	d := &recordingDeliverer{fail: map[string]bool{b.ID: true}}
	result, err := r.Publish(context.Background(), []string{"donuts", "coffee"}, []byte(`{}`), d)
	if err != nil {
		t.Fatalf("Publish() error: %v", err)
	}
	if result.Targeted != 2 || result.Delivered != 1 {
		t.Fatalf("Publish() = %+v, want 2 targeted 1 delivered", result)
	}
	if len(d.delivered) != 1 || d.delivered[0] != a.ID {
		t.Fatalf("delivered = %v, want [%s]", d.delivered, a.ID)
	}
	if !strings.HasPrefix(result.PublishID, "pubid-") {
		t.Fatalf("PublishID = %q", result.PublishID)
	}

	if _, err := r.Publish(context.Background(), nil, nil, d); !errors.Is(err, ErrNoInterests) {
		t.Fatalf("Publish(no interests) error = %v, want ErrNoInterests", err)
	}
}
