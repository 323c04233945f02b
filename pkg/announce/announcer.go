// Package announce pushes navigation commands to the speech endpoint over
// a websocket. It suppresses repeats and status text so the user hears a
// command only when it changes.
package announce

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pathsense/go-pathsense/internal/log"
	"github.com/pathsense/go-pathsense/pkg/guidance"
)

const (
	keepaliveInterval  = 30 * time.Second
	reconnectBaseDelay = 1 * time.Second
	reconnectMaxDelay  = 30 * time.Second

	// minRepeatGap is how long an identical command stays suppressed.
	minRepeatGap = 5 * time.Second
)

// payload is one spoken announcement on the wire.
type payload struct {
	Text string `json:"text"`
}

// Announcer is a websocket client for the speech endpoint. Announcements
// are queued without blocking the navigation loop; a full queue drops the
// oldest semantics by dropping the new command, which the next cycle will
// regenerate anyway.
type Announcer struct {
	url string

	conn      *websocket.Conn
	connMu    sync.Mutex
	connected bool

	lastCmd   string
	lastAt    time.Time
	lastMu    sync.Mutex

	ctx          context.Context
	cancel       context.CancelFunc
	sendCh       chan string
	closeCh      chan struct{}
	closeOnce    sync.Once
	reconnecting bool
}

// New creates an announcer for the given websocket URL.
func New(url string) *Announcer {
	return &Announcer{
		url:     url,
		sendCh:  make(chan string, 16),
		closeCh: make(chan struct{}),
	}
}

// Connect dials the endpoint and starts the write and keepalive loops.
func (a *Announcer) Connect(ctx context.Context) error {
	a.ctx, a.cancel = context.WithCancel(ctx)

	if err := a.dial(); err != nil {
		return err
	}

	go a.writeLoop()
	go a.keepaliveLoop()
	return nil
}

func (a *Announcer) dial() error {
	a.connMu.Lock()
	defer a.connMu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(a.ctx, a.url, http.Header{})
	if err != nil {
		if resp != nil {
			return fmt.Errorf("announcer dial failed (status %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("announcer dial failed: %w", err)
	}

	a.conn = conn
	a.connected = true
	log.Info("announcer connected", "url", a.url)
	return nil
}

// Announce queues a command for speech. Status text and unchanged commands
// inside the repeat window are dropped silently.
func (a *Announcer) Announce(cmd string) {
	if guidance.IsStatus(cmd) {
		return
	}

	a.lastMu.Lock()
	now := time.Now()
	if cmd == a.lastCmd && now.Sub(a.lastAt) < minRepeatGap {
		a.lastMu.Unlock()
		return
	}
	a.lastCmd = cmd
	a.lastAt = now
	a.lastMu.Unlock()

	select {
	case a.sendCh <- cmd:
	default:
		log.Warn("announce queue full, dropping command", "command", cmd)
	}
}

// Reset clears repeat suppression, so the next command always speaks.
// Called when a new navigation session starts.
func (a *Announcer) Reset() {
	a.lastMu.Lock()
	a.lastCmd = ""
	a.lastAt = time.Time{}
	a.lastMu.Unlock()
}

func (a *Announcer) writeLoop() {
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-a.closeCh:
			return
		case text := <-a.sendCh:
			a.connMu.Lock()
			conn := a.conn
			connected := a.connected
			a.connMu.Unlock()

			if !connected || conn == nil {
				continue
			}
			if err := conn.WriteJSON(payload{Text: text}); err != nil {
				log.Error("announcer write failed", "error", err)
				a.handleDisconnect()
			}
		}
	}
}

func (a *Announcer) keepaliveLoop() {
	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.ctx.Done():
			return
		case <-a.closeCh:
			return
		case <-ticker.C:
			a.connMu.Lock()
			conn := a.conn
			connected := a.connected
			a.connMu.Unlock()

			if !connected || conn == nil {
				continue
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Warn("announcer keepalive failed", "error", err)
				a.handleDisconnect()
			}
		}
	}
}

func (a *Announcer) handleDisconnect() {
	a.connMu.Lock()
	if a.conn != nil {
		a.conn.Close()
		a.conn = nil
	}
	a.connected = false
	wasReconnecting := a.reconnecting
	a.reconnecting = true
	a.connMu.Unlock()

	if !wasReconnecting {
		go a.reconnectLoop()
	}
}

func (a *Announcer) reconnectLoop() {
	delay := reconnectBaseDelay
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-a.closeCh:
			return
		default:
		}

		log.Info("announcer reconnecting", "delay", delay)
		time.Sleep(delay)

		if err := a.dial(); err != nil {
			log.Error("announcer reconnect failed", "error", err)
			delay *= 2
			if delay > reconnectMaxDelay {
				delay = reconnectMaxDelay
			}
			continue
		}

		a.connMu.Lock()
		a.reconnecting = false
		a.connMu.Unlock()
		return
	}
}

// IsConnected reports whether the websocket is up.
func (a *Announcer) IsConnected() bool {
	a.connMu.Lock()
	defer a.connMu.Unlock()
	return a.connected
}

// Close terminates the connection. Safe to call more than once.
func (a *Announcer) Close() error {
	if a.cancel != nil {
		a.cancel()
	}
	a.closeOnce.Do(func() { close(a.closeCh) })

	a.connMu.Lock()
	defer a.connMu.Unlock()
	if a.conn != nil {
		a.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		a.conn.Close()
		a.conn = nil
	}
	a.connected = false
	return nil
}
