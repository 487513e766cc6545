package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pushbeams/beams-device/internal/model"
	"github.com/pushbeams/beams-device/internal/push"
	"github.com/pushbeams/beams-device/internal/services/registry"
)

var ErrNoListener = errors.New("no listener connected for push endpoint")

const (
	relayWriteTimeout = 10 * time.Second
	relayPingInterval = 30 * time.Second
)

type relayConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *relayConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(relayWriteTimeout))
}

func (c *relayConn) send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(relayWriteTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Relay stands in for a browser push service: listeners hold a websocket
// per subscription endpoint key and receive every payload sent to it.
type Relay struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu    sync.Mutex
	conns map[string]map[*relayConn]struct{}
}

func NewRelay(logger *slog.Logger) *Relay {
	return &Relay{
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		logger:   logger,
		conns:    map[string]map[*relayConn]struct{}{},
	}
}

// Connections returns the number of connected listeners.
func (h *Relay) Connections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, set := range h.conns {
		n += len(set)
	}
	return n
}

// Listen upgrades the request and holds the connection until the peer leaves.
func (h *Relay) Listen(w http.ResponseWriter, r *http.Request, key string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("push relay upgrade failed", "key", key, "err", err)
		return
	}
	// The server's read timeout would otherwise end idle listeners.
	_ = conn.SetReadDeadline(time.Time{})
	rc := &relayConn{conn: conn}
	h.add(key, rc)
	done := make(chan struct{})
	defer func() {
		close(done)
		h.remove(key, rc)
		_ = conn.Close()
	}()
	go h.keepAlive(rc, done)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Relay) keepAlive(rc *relayConn, done <-chan struct{}) {
	ticker := time.NewTicker(relayPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := rc.ping(); err != nil {
				return
			}
		}
	}
}

// Push accepts a raw payload for key, the way a push service endpoint does.
func (h *Relay) Push(w http.ResponseWriter, r *http.Request, key string) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Bad request", "cannot read payload")
		return
	}
	n, err := h.Send(key, payload)
	if err != nil {
		writeError(w, http.StatusGone, "Gone", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"delivered": n})
}

// Send writes payload to every listener on key.
func (h *Relay) Send(key string, payload []byte) (int, error) {
	h.mu.Lock()
	targets := make([]*relayConn, 0, len(h.conns[key]))
	for rc := range h.conns[key] {
		targets = append(targets, rc)
	}
	h.mu.Unlock()

	delivered := 0
	for _, rc := range targets {
		if err := rc.send(payload); err != nil {
			h.logger.Debug("push relay write failed", "key", key, "err", err)
			continue
		}
		delivered++
	}
	if delivered == 0 {
		return 0, ErrNoListener
	}
	return delivered, nil
}

// Deliver routes a published payload to a web device's subscription endpoint.
func (h *Relay) Deliver(_ context.Context, device registry.Device, payload []byte) error {
	if device.Platform != model.PlatformWeb {
		return fmt.Errorf("relay cannot deliver to %s devices", device.Platform)
	}
	sub, err := push.DecodeToken(device.Token)
	if err != nil {
		return err
	}
	endpoint, err := url.Parse(sub.Endpoint)
	if err != nil {
		return fmt.Errorf("parse subscription endpoint: %w", err)
	}
	_, err = h.Send(path.Base(endpoint.Path), payload)
	return err
}

func (h *Relay) add(key string, rc *relayConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.conns[key]
	if !ok {
		set = map[*relayConn]struct{}{}
		h.conns[key] = set
	}
	set[rc] = struct{}{}
}

func (h *Relay) remove(key string, rc *relayConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns[key], rc)
	if len(h.conns[key]) == 0 {
		delete(h.conns, key)
	}
}
