package httpapi

import (
	"context"
	"net/http"
	"time"

	"wisefido-vitals-hub/internal/models"

	"go.uber.org/zap"
)

// StatsProvider 由 hub.Hub 实现
type StatsProvider interface {
	Stats(ctx context.Context) (models.HubStats, error)
}

// StatusHandler 实时中心状态查询
type StatusHandler struct {
	stats  StatsProvider
	logger *zap.Logger
}

func NewStatusHandler(stats StatsProvider, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{stats: stats, logger: logger}
}

// StatusResponse GET /api/v1/vitals/status
// 接口无需认证，只报告是否存在活动用户，不返回其身份
type StatusResponse struct {
	Devices       []models.DeviceInfo    `json:"devices"`
	Observers     int                    `json:"observers"`
	Connections   int                    `json:"connections"`
	Authenticated bool                   `json:"authenticated"`
	Snapshot      models.SensorDataEvent `json:"snapshot"`
}

func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	stats, err := h.stats.Stats(ctx)
	if err != nil {
		h.logger.Warn("Hub stats unavailable", zap.Error(err))
		writeFail(w, http.StatusServiceUnavailable, "hub unavailable")
		return
	}

	devices := stats.Devices
	if devices == nil {
		devices = []models.DeviceInfo{}
	}
	writeOk(w, StatusResponse{
		Devices:       devices,
		Observers:     stats.Observers,
		Connections:   stats.Connections,
		Authenticated: stats.ActiveUser != nil,
		Snapshot:      models.NewSensorDataEvent(stats.Snapshot),
	})
}
