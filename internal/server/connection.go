// internal/server/connection.go
package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/OCAP2/panopath/internal/logging"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
)

const (
	sendChSize = 256
	writeWait  = 10 * time.Second
	maxMessage = 8 << 20 // path documents arrive over the socket
)

// client is one browser connection with a single write goroutine.
type client struct {
	id     string
	conn   *ws.Conn
	sendCh chan []byte
	done   chan struct{} // closed on shutdown

	mu     sync.Mutex
	closed bool

	ctx    context.Context // carries the client id for log records
	logger *slog.Logger
}

func newClient(conn *ws.Conn, logger *slog.Logger) *client {
	id := uuid.NewString()
	conn.SetReadLimit(maxMessage)
	return &client{
		id:     id,
		conn:   conn,
		sendCh: make(chan []byte, sendChSize),
		done:   make(chan struct{}),
		ctx:    logging.WithClient(context.Background(), id),
		logger: logger,
	}
}

// writeLoop drains sendCh and writes messages to the WebSocket.
// It returns on write error or shutdown.
func (c *client) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.sendCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.WarnContext(c.ctx, "WebSocket SetWriteDeadline error", "error", err)
				c.close()
				return
			}
			if err := c.conn.WriteMessage(ws.TextMessage, data); err != nil {
				c.logger.WarnContext(c.ctx, "WebSocket write error", "error", err)
				c.close()
				return
			}
		}
	}
}

// send pushes data to the write loop. A client that cannot keep up is
// disconnected; it gets a full snapshot when it reconnects.
func (c *client) send(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.sendCh <- data:
		return true
	default:
		c.logger.WarnContext(c.ctx, "WebSocket send channel full, disconnecting client")
		c.close()
		return false
	}
}

// close sends a WebSocket close frame and shuts down the write loop. The
// read loop exits once the underlying connection is closed.
func (c *client) close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()

	_ = c.conn.WriteControl(
		ws.CloseMessage,
		ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return c.conn.Close()
}
