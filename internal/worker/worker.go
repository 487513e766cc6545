// Package worker handles push deliveries and notification clicks on behalf
// of a registered device, the way a service worker would.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

var ErrMissingNotification = errors.New("push payload has no notification")

// Payload is the JSON document published to a device.
type Payload struct {
	Notification *struct {
		Title    string `json:"title"`
		Body     string `json:"body"`
		Icon     string `json:"icon"`
		DeepLink string `json:"deep_link"`
	} `json:"notification"`
	Data map[string]any `json:"data"`
}

// Notification is what gets displayed for a push.
type Notification struct {
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Icon  string         `json:"icon,omitempty"`
	Data  map[string]any `json:"data"`
}

// DeepLink returns data.pusher.deep_link, or "" when absent.
func (n Notification) DeepLink() string {
	pusher, ok := n.Data["pusher"].(map[string]any)
	if !ok {
		return ""
	}
	link, _ := pusher["deep_link"].(string)
	return link
}

// Callbacks are the host capabilities the worker drives.
type Callbacks struct {
	Display    func(ctx context.Context, n Notification) error
	OpenWindow func(ctx context.Context, url string) error
}

type Config struct {
	Logger *slog.Logger
}

// Context is built once per worker and shared by every handler.
type Context struct {
	logger    *slog.Logger
	callbacks Callbacks
}

func NewContext(cfg Config, callbacks Callbacks) *Context {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Context{logger: logger, callbacks: callbacks}
}

// HandlePush decodes payload, displays the resulting notification and
// returns it.
func (w *Context) HandlePush(ctx context.Context, payload []byte) (Notification, error) {
	var p Payload
	if err := json.Unmarshal(payload, &p); err != nil {
		return Notification{}, fmt.Errorf("decode push payload: %w", err)
	}
	if p.Notification == nil {
		return Notification{}, ErrMissingNotification
	}

	data := p.Data
	if data == nil {
		data = map[string]any{}
	}
	if p.Notification.DeepLink != "" {
		pusher, ok := data["pusher"].(map[string]any)
		if !ok {
			pusher = map[string]any{}
			data["pusher"] = pusher
		}
		pusher["deep_link"] = p.Notification.DeepLink
	}

	n := Notification{
		Title: p.Notification.Title,
		Body:  p.Notification.Body,
		Icon:  p.Notification.Icon,
		Data:  data,
	}
	if w.callbacks.Display != nil {
		if err := w.callbacks.Display(ctx, n); err != nil {
			return n, fmt.Errorf("display notification: %w", err)
		}
	}
	w.logger.Debug("notification displayed", "title", n.Title)
	return n, nil
}

// HandleNotificationClick opens the notification's deep link, if any.
// It reports whether a window was opened.
func (w *Context) HandleNotificationClick(ctx context.Context, n Notification) (bool, error) {
	link := n.DeepLink()
	if link == "" || w.callbacks.OpenWindow == nil {
		return false, nil
	}
	if err := w.callbacks.OpenWindow(ctx, link); err != nil {
		return false, fmt.Errorf("open %s: %w", link, err)
	}
	return true, nil
}
