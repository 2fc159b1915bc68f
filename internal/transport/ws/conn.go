package ws

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var errSendBufferFull = errors.New("send buffer full")
var errConnClosed = errors.New("connection closed")

const (
	sendBufferSize = 32
	writeTimeout   = 5 * time.Second
)

// wsConn adapts one gorilla socket. Outbound messages go through a
// single-consumer channel drained by run(), so concurrent broadcasts can
// never interleave writes on the wire. A stuck socket fills its own buffer
// and starts shedding its own messages; it cannot stall other recipients.
type wsConn struct {
	conn     *websocket.Conn
	roomID   string
	username string

	out       chan Message
	closed    chan struct{}
	closeOnce sync.Once
	pingEvery time.Duration
	log       *slog.Logger
}

func newWSConn(c *websocket.Conn, roomID, username string, pingEvery time.Duration, log *slog.Logger) *wsConn {
	return &wsConn{
		conn:      c,
		roomID:    roomID,
		username:  username,
		out:       make(chan Message, sendBufferSize),
		closed:    make(chan struct{}),
		pingEvery: pingEvery,
		log:       log,
	}
}

func (c *wsConn) Send(msg Message) error {
	select {
	case <-c.closed:
		return errConnClosed
	default:
	}

	select {
	case c.out <- msg:
		return nil
	default:
		return errSendBufferFull
	}
}

func (c *wsConn) Close(reason string) error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		if reason != "" {
			deadline := time.Now().Add(time.Second)
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason),
				deadline)
		}
		err = c.conn.Close()
	})
	return err
}

func (c *wsConn) IsOpen() bool {
	select {
	case <-c.closed:
		return false
	default:
		return true
	}
}

func (c *wsConn) Username() string { return c.username }
func (c *wsConn) RoomID() string   { return c.roomID }

// run is the single writer goroutine for this socket.
func (c *wsConn) run() {
	ticker := time.NewTicker(c.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.out:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.log.Debug("ws write failed",
					"room", c.roomID, "user", c.username, "err", err)
				_ = c.Close("")
				return
			}
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
		case <-c.closed:
			return
		}
	}
}
