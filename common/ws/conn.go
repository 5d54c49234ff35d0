package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrClosed is returned by Conn methods on a nil or closed connection.
var ErrClosed = errors.New("websocket: connection is closed")

// Conn wraps *websocket.Conn. gorilla/websocket allows one concurrent
// writer; writeMu serializes writes from the pump and ping loops.
type Conn struct {
	c       *websocket.Conn
	writeMu sync.Mutex
}

// Dial connects to a ws:// or wss:// URL.
func Dial(ctx context.Context, urlStr string, reqHeader http.Header, handshakeTimeout time.Duration) (*Conn, *http.Response, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid websocket URL: %w", err)
	}
	if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
		return nil, nil, fmt.Errorf("URL scheme must be ws or wss, got %q", parsed.Scheme)
	}

	dialer := &websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	c, resp, err := dialer.DialContext(ctx, parsed.String(), reqHeader)
	if err != nil {
		return nil, resp, err
	}
	return &Conn{c: c}, resp, nil
}

// Upgrader upgrades HTTP requests. An empty AllowedOrigins accepts any
// origin.
type Upgrader struct {
	AllowedOrigins []string
}

// Upgrade switches the request to the websocket protocol.
func (u Upgrader) Upgrade(w http.ResponseWriter, r *http.Request) (*Conn, error) {
	upgrader := websocket.Upgrader{CheckOrigin: u.checkOrigin}
	c, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return &Conn{c: c}, nil
}

func (u Upgrader) checkOrigin(r *http.Request) bool {
	if len(u.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range u.AllowedOrigins {
		if allowed == origin {
			return true
		}
	}
	return false
}

// UpgradeHTTP upgrades with a permissive origin policy.
func UpgradeHTTP(w http.ResponseWriter, r *http.Request) (*Conn, error) {
	return Upgrader{}.Upgrade(w, r)
}

// ReadMessage reads a data message and returns the raw bytes.
func (cw *Conn) ReadMessage() ([]byte, error) {
	if cw == nil || cw.c == nil {
		return nil, ErrClosed
	}
	_, msg, err := cw.c.ReadMessage()
	return msg, err
}

// ReadJSON reads the next message into msg.
func (cw *Conn) ReadJSON(msg *Message) error {
	if cw == nil || cw.c == nil {
		return ErrClosed
	}
	return cw.c.ReadJSON(msg)
}

// WriteMessage writes msg as JSON with a write deadline.
func (cw *Conn) WriteMessage(msg *Message, timeout time.Duration) error {
	if cw == nil || cw.c == nil {
		return ErrClosed
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	cw.writeMu.Lock()
	defer cw.writeMu.Unlock()

	if timeout > 0 {
		_ = cw.c.SetWriteDeadline(time.Now().Add(timeout))
	}
	return cw.c.WriteJSON(msg)
}

// WritePing sends a ping control message.
func (cw *Conn) WritePing(timeout time.Duration) error {
	if cw == nil || cw.c == nil {
		return ErrClosed
	}
	cw.writeMu.Lock()
	defer cw.writeMu.Unlock()
	return cw.c.WriteControl(websocket.PingMessage, nil, time.Now().Add(timeout))
}

// WriteClose sends a normal close frame.
func (cw *Conn) WriteClose(text string, timeout time.Duration) error {
	if cw == nil || cw.c == nil {
		return ErrClosed
	}
	cw.writeMu.Lock()
	defer cw.writeMu.Unlock()
	return cw.c.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, text), time.Now().Add(timeout))
}

// Close closes the underlying websocket connection.
func (cw *Conn) Close() error {
	if cw == nil || cw.c == nil {
		return nil
	}
	return cw.c.Close()
}

// SetReadDeadline sets read deadline on underlying conn.
func (cw *Conn) SetReadDeadline(t time.Time) error {
	if cw == nil || cw.c == nil {
		return ErrClosed
	}
	return cw.c.SetReadDeadline(t)
}

// SetPongHandler sets the pong handler.
func (cw *Conn) SetPongHandler(h func(string) error) {
	if cw == nil || cw.c == nil {
		return
	}
	cw.c.SetPongHandler(h)
}

// RemoteAddr returns the remote address if available.
func (cw *Conn) RemoteAddr() string {
	if cw == nil || cw.c == nil || cw.c.RemoteAddr() == nil {
		return ""
	}
	return cw.c.RemoteAddr().String()
}

// IsUnexpectedCloseError reports close errors other than a normal or
// going-away close.
func IsUnexpectedCloseError(err error) bool {
	return websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure)
}

// PumpOptions tunes Pump.
type PumpOptions struct {
	WriteTimeout time.Duration // per message, default 10s
	PingInterval time.Duration // default 25s
	PongWait     time.Duration // read deadline extended on each pong, default 60s
}

func (o PumpOptions) withDefaults() PumpOptions {
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 25 * time.Second
	}
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	return o
}

// Pump writes every message from events to the connection until ctx ends,
// events is closed, the peer disconnects or a write fails. It pings the peer
// every PingInterval and drains inbound frames so control messages are
// processed. The returned error is nil for a normal shutdown.
func (cw *Conn) Pump(ctx context.Context, events <-chan Message, opts PumpOptions) error {
	opts = opts.withDefaults()

	_ = cw.SetReadDeadline(time.Now().Add(opts.PongWait))
	cw.SetPongHandler(func(string) error {
		return cw.SetReadDeadline(time.Now().Add(opts.PongWait))
	})

	readErr := make(chan error, 1)
	go func() {
		for {
			if _, err := cw.ReadMessage(); err != nil {
				readErr <- err
				return
			}
		}
	}()

	ticker := time.NewTicker(opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = cw.WriteClose("server shutting down", opts.WriteTimeout)
			return nil
		case err := <-readErr:
			if IsUnexpectedCloseError(err) {
				return err
			}
			return nil
		case msg, ok := <-events:
			if !ok {
				_ = cw.WriteClose("subscription closed", opts.WriteTimeout)
				return nil
			}
			if err := cw.WriteMessage(&msg, opts.WriteTimeout); err != nil {
				return fmt.Errorf("write %s: %w", msg.Type, err)
			}
		case <-ticker.C:
			if err := cw.WritePing(opts.WriteTimeout); err != nil {
				return fmt.Errorf("ping: %w", err)
			}
		}
	}
}
