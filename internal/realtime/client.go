package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Identity is the authenticated user behind a connection.
type Identity struct {
	UserID string
	Role   string
	// UserName is the display name from the user record, when known.
	UserName string
}

// client is one websocket connection. The read pump owns inbound traffic and
// the disconnect path; the write pump is the only writer to conn.
type client struct {
	id       string
	conn     *websocket.Conn
	send     chan []byte
	done     chan struct{}
	once     sync.Once
	identity *Identity
}

func newClient(id string, conn *websocket.Conn, identity *Identity, buffer int) *client {
	return &client{
		id:       id,
		conn:     conn,
		send:     make(chan []byte, buffer),
		done:     make(chan struct{}),
		identity: identity,
	}
}

// kill asks the write pump to close the connection. It never blocks and is
// safe to call from any goroutine any number of times.
func (c *client) kill() {
	c.once.Do(func() { close(c.done) })
}

func (c *client) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// pumpSettings are the timing limits applied to every connection.
type pumpSettings struct {
	maxMessageBytes int64
	writeTimeout    time.Duration
	pongTimeout     time.Duration
}

func (p pumpSettings) pingPeriod() time.Duration {
	return p.pongTimeout * 9 / 10
}

// readPump delivers frames to handle until the connection fails or is
// closed by the write pump.
func (c *client) readPump(ctx context.Context, p pumpSettings, logger *slog.Logger, handle func(context.Context, []byte)) {
	defer c.kill()

	c.conn.SetReadLimit(p.maxMessageBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(p.pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(p.pongTimeout))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) && !c.closed() {
				logger.Debug("websocket read failed", slog.String("error", err.Error()))
			}
			return
		}
		handle(ctx, frame)
	}
}

// writePump drains the send queue and keeps the peer alive with pings.
func (c *client) writePump(p pumpSettings, logger *slog.Logger) {
	ticker := time.NewTicker(p.pingPeriod())
	defer func() {
		ticker.Stop()
		c.kill()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(p.writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("websocket write failed", slog.String("error", err.Error()))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(p.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(p.writeTimeout))
			return
		}
	}
}
