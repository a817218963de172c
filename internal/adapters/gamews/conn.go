package gamews

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"
)

var ErrBackpressure = errors.New("backpressure")

// GameConn wraps the websocket connection from the embedding game server.
// Sends go through a buffered channel; a full buffer drops with
// ErrBackpressure instead of blocking the engine.
type GameConn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func newGameConn(ws *websocket.Conn, sendBuf int) *GameConn {
	return &GameConn{
		conn: ws,
		send: make(chan []byte, sendBuf),
	}
}

func (c *GameConn) TrySend(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- data:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *GameConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}
