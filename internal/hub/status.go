package hub

import (
	"wisefido-vitals-hub/internal/models"

	"go.uber.org/zap"
)

func (h *Hub) stats() models.HubStats {
	s := models.HubStats{
		Devices:     h.registry.Devices(),
		Observers:   h.registry.ObserverCount(),
		Connections: h.registry.ConnectionCount(),
		Snapshot:    h.aggregator.Snapshot(),
	}
	if id, ok := h.session.Active(); ok {
		s.ActiveUser = &id
	}
	return s
}

// logStatus 定期输出系统状态
func (h *Hub) logStatus() {
	s := h.stats()

	activeUser := ""
	if s.ActiveUser != nil {
		activeUser = s.ActiveUser.UserID
	}

	h.logger.Info("Hub status",
		zap.Int("devices", len(s.Devices)),
		zap.Any("device_list", s.Devices),
		zap.Int("web_clients", s.Observers),
		zap.Int("connections", s.Connections),
		zap.String("active_user", activeUser),
		zap.Any("temperature", s.Snapshot.Temperature),
		zap.Any("pulse", s.Snapshot.Pulse),
		zap.Any("spo2", s.Snapshot.SpO2),
	)
}
