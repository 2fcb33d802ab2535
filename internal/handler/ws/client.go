package ws

import (
	"time"

	"github.com/gorilla/websocket"
)

// client is one registered connection. All writes go through the send channel
// so frames from concurrent broadcasts never interleave on the wire.
type client struct {
	id     string
	conn   *websocket.Conn
	send   chan []byte
	closed bool // guarded by the hub mutex
}

func newClient(id string, conn *websocket.Conn, queueSize int) *client {
	return &client{
		id:   id,
		conn: conn,
		send: make(chan []byte, queueSize),
	}
}

// writePump drains the send channel onto the connection and keeps the peer
// alive with periodic pings. It owns all writes to the underlying conn.
func (c *client) writePump(pingInterval, writeTimeout time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
