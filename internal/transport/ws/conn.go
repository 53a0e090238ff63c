package ws

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"wisefido-vitals-hub/internal/hub"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
)

var errConnClosed = errors.New("connection closed")

// HubPort hub 对传输层暴露的入口（由 hub.Hub 实现）
type HubPort interface {
	Connect(conn hub.Conn)
	Receive(ctx context.Context, conn hub.Conn, raw []byte)
	Pong(conn hub.Conn)
	Disconnect(conn hub.Conn)
}

// Conn 单个 WebSocket 连接：有界发送缓冲，由 writePump 独占写入
type Conn struct {
	id         string
	remoteAddr string
	ws         *websocket.Conn
	logger     *zap.Logger

	send      chan []byte
	ping      chan struct{}
	done      chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once
}

func newConn(id, remoteAddr string, ws *websocket.Conn, sendBuffer int, logger *zap.Logger) *Conn {
	return &Conn{
		id:         id,
		remoteAddr: remoteAddr,
		ws:         ws,
		logger:     logger,
		send:       make(chan []byte, sendBuffer),
		ping:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

func (c *Conn) ID() string {
	return c.id
}

func (c *Conn) RemoteAddr() string {
	return c.remoteAddr
}

// Send queues data for the write pump. It returns false when the connection is
// closed or its buffer is full.
func (c *Conn) Send(data []byte) bool {
	if c.closed.Load() {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Ping asks the write pump to send a ping control frame.
func (c *Conn) Ping() error {
	if c.closed.Load() {
		return errConnClosed
	}
	select {
	case c.ping <- struct{}{}:
	default:
	}
	return nil
}

// Close 关闭连接，readPump 随之退出并通知 hub
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.done)
		err = c.ws.Close()
	})
	return err
}

func (c *Conn) readPump(ctx context.Context, h HubPort) {
	defer func() {
		h.Disconnect(c)
		_ = c.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetPongHandler(func(string) error {
		h.Pong(c)
		return nil
	})

	for {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) && !c.closed.Load() {
				c.logger.Warn("WebSocket read error",
					zap.String("conn_id", c.id),
					zap.Error(err),
				)
			}
			return
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}
		h.Receive(ctx, c, data)
	}
}

func (c *Conn) writePump() {
	defer c.Close()

	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug("WebSocket write failed", zap.String("conn_id", c.id), zap.Error(err))
				return
			}
		case <-c.ping:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("WebSocket ping failed", zap.String("conn_id", c.id), zap.Error(err))
				return
			}
		}
	}
}
