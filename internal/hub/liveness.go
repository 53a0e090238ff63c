package hub

import (
	"errors"

	"go.uber.org/zap"
)

// sweep 心跳检测：上一轮未回应的连接被终止，其余连接重置标记并发送 ping
func (h *Hub) sweep() {
	for _, cl := range h.registry.Clients() {
		if !cl.alive {
			if !cl.terminated {
				cl.terminated = true
				h.logger.Info("Terminating unresponsive connection",
					zap.String("conn_id", cl.conn.ID()),
					zap.String("role", cl.role.String()),
					zap.String("device_id", cl.deviceID),
				)
			}
			// Close funnels back through Disconnect once the transport notices.
			if err := cl.conn.Close(); err != nil {
				h.logger.Debug("Error closing connection", zap.String("conn_id", cl.conn.ID()), zap.Error(err))
			}
			continue
		}

		cl.alive = false
		if err := cl.conn.Ping(); err != nil {
			if errors.Is(err, ErrProbeUnsupported) {
				cl.alive = true
				continue
			}
			h.logger.Debug("Liveness probe failed",
				zap.String("conn_id", cl.conn.ID()),
				zap.Error(err),
			)
		}
	}
}
