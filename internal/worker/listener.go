package worker

import (
	"context"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

const (
	listenerReadTimeout = 120 * time.Second
	maxBackoff          = 20 * time.Second
)

// Listener receives pushes for one subscription endpoint over a websocket
// relay and hands each to HandlePush.
type Listener struct {
	worker   *Context
	endpoint string
	dialer   *websocket.Dialer
	// OnNotification, when set, is called after each displayed push.
	OnNotification func(Notification)
}

func NewListener(worker *Context, endpoint string) *Listener {
	return &Listener{worker: worker, endpoint: endpoint, dialer: websocket.DefaultDialer}
}

// Run reconnects with backoff until ctx is done.
func (l *Listener) Run(ctx context.Context) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}
		err := l.runSession(ctx)
		if err != nil && ctx.Err() == nil {
			l.worker.logger.Warn("push relay disconnected", "endpoint", l.endpoint, "err", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < maxBackoff {
			backoff *= 2
		}
	}
}

func (l *Listener) runSession(ctx context.Context) error {
	wsURL, err := toWebsocketURL(l.endpoint)
	if err != nil {
		return err
	}
	conn, _, err := l.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	conn.SetPingHandler(func(data string) error {
		if err := conn.SetReadDeadline(time.Now().Add(listenerReadTimeout)); err != nil {
			return err
		}
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})

	l.worker.logger.Info("push relay connected", "endpoint", l.endpoint)
	for {
		if err := conn.SetReadDeadline(time.Now().Add(listenerReadTimeout)); err != nil {
			return err
		}
		kind, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if kind != websocket.TextMessage && kind != websocket.BinaryMessage {
			continue
		}
		n, err := l.worker.HandlePush(ctx, msg)
		if err != nil {
			l.worker.logger.Warn("push handling failed", "err", err)
			continue
		}
		if l.OnNotification != nil {
			l.OnNotification(n)
		}
	}
}

func toWebsocketURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	return u.String(), nil
}
