package ws

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handler 将 HTTP 请求升级为 WebSocket 并接入 hub
type Handler struct {
	ctx        context.Context
	hub        HubPort
	upgrader   websocket.Upgrader
	sendBuffer int
	logger     *zap.Logger
}

// NewHandler creates the upgrade handler. ctx bounds token verification for
// every connection it accepts.
func NewHandler(ctx context.Context, h HubPort, sendBuffer int, logger *zap.Logger) *Handler {
	if sendBuffer <= 0 {
		sendBuffer = 16
	}
	return &Handler{
		ctx: ctx,
		hub: h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 设备与网页客户端来自不同源
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		sendBuffer: sendBuffer,
		logger:     logger,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	conn := newConn(uuid.New().String(), r.RemoteAddr, wsConn, h.sendBuffer, h.logger)
	h.hub.Connect(conn)

	go conn.writePump()
	conn.readPump(h.ctx, h.hub)
}
