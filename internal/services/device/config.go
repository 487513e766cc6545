package device

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	devicedomain "github.com/pushbeams/beams-device/internal/domain/device"
	"github.com/pushbeams/beams-device/internal/push"
	"github.com/pushbeams/beams-device/internal/registrar"
)

// SDKVersion is reported to the registrar as device metadata.
const SDKVersion = "1.1.0"

// Config wires a Client. Exactly one push capability is used: WebPush when
// set, otherwise PlatformPush.
type Config struct {
	InstanceID string
	Store      devicedomain.Store

	// Registrar overrides the HTTP registrar built from Endpoint and HTTPClient.
	Registrar  Registrar
	Endpoint   string
	HTTPClient *http.Client

	WebPush      *WebPushConfig
	PlatformPush *PlatformPushConfig

	SDKVersion string
	UserAgent  string
	Logger     *slog.Logger
}

// WebPushConfig selects the web push variant.
type WebPushConfig struct {
	Manager push.SubscriptionManager
	// Scope and PageURL, when both set, must satisfy PageURL within Scope.
	Scope   string
	PageURL string
}

// PlatformPushConfig selects the platform push variant.
type PlatformPushConfig struct {
	Authority     push.PermissionAuthority
	WebsitePushID string
	ServiceURL    string
	UserInfo      map[string]string
}

func (c *Config) normalize() error {
	c.InstanceID = strings.TrimSpace(c.InstanceID)
	if c.InstanceID == "" {
		return devicedomain.ErrInstanceIDRequired
	}
	if c.Store == nil {
		return devicedomain.ErrStoreRequired
	}
	if c.Registrar == nil {
		c.Registrar = registrar.NewClient(c.InstanceID, c.Endpoint, c.HTTPClient)
	}
	if c.SDKVersion == "" {
		c.SDKVersion = SDKVersion
	}
	if c.UserAgent == "" {
		c.UserAgent = "beams-device-go/" + c.SDKVersion
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return nil
}

// selectPlatform runs once per client; the result never changes.
func (c *Config) selectPlatform() (pushPlatform, error) {
	switch {
	case c.WebPush != nil && c.WebPush.Manager != nil:
		scope := strings.TrimSpace(c.WebPush.Scope)
		page := strings.TrimSpace(c.WebPush.PageURL)
		if scope != "" && page != "" && !strings.HasPrefix(page, scope) {
			return nil, fmt.Errorf("%w (%s)", devicedomain.ErrServiceWorkerScope, scope)
		}
		return &webPush{manager: c.WebPush.Manager, keys: c.Registrar}, nil
	case c.PlatformPush != nil && c.PlatformPush.Authority != nil:
		websitePushID := strings.TrimSpace(c.PlatformPush.WebsitePushID)
		if websitePushID == "" {
			return nil, devicedomain.ErrWebsitePushIDRequired
		}
		return &platformPush{
			authority:     c.PlatformPush.Authority,
			websitePushID: websitePushID,
			serviceURL:    c.PlatformPush.ServiceURL,
			userInfo:      c.PlatformPush.UserInfo,
		}, nil
	default:
		return nil, devicedomain.ErrUnsupportedPlatform
	}
}
