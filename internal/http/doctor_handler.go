package httpapi

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ConnectionChecker 由 common/mqtt.Client 实现
type ConnectionChecker interface {
	IsConnected() bool
}

// DropCounter 由 persist.Dispatcher 实现
type DropCounter interface {
	Dropped() int64
}

// DoctorHandler 诊断处理器
type DoctorHandler struct {
	db          *sql.DB
	redisClient *redis.Client
	hub         StatsProvider
	mqtt        ConnectionChecker
	persist     DropCounter
	logger      *zap.Logger
}

// NewDoctorHandler 创建诊断处理器，db 与 redisClient 未启用时为 nil
func NewDoctorHandler(db *sql.DB, redisClient *redis.Client, hub StatsProvider, logger *zap.Logger) *DoctorHandler {
	return &DoctorHandler{
		db:          db,
		redisClient: redisClient,
		hub:         hub,
		logger:      logger,
	}
}

// WithMQTT 启用 MQTT 连接检查
func (d *DoctorHandler) WithMQTT(c ConnectionChecker) *DoctorHandler {
	d.mqtt = c
	return d
}

// WithPersistence 在诊断结果中报告被丢弃的读数
func (d *DoctorHandler) WithPersistence(p DropCounter) *DoctorHandler {
	d.persist = p
	return d
}

func (d *DoctorHandler) mqttConnected() error {
	if !d.mqtt.IsConnected() {
		return errors.New("disconnected from broker")
	}
	return nil
}

// HealthCheckResponse 健康检查响应
type HealthCheckResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

// HealthCheck 健康检查端点
func (d *DoctorHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	services := make(map[string]string)

	check := func(name string, ping func(ctx context.Context) error) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := ping(ctx); err != nil {
			status = "unhealthy"
			services[name] = "unhealthy: " + err.Error()
			return
		}
		services[name] = "healthy"
	}

	check("hub", func(ctx context.Context) error {
		_, err := d.hub.Stats(ctx)
		return err
	})

	if d.redisClient != nil {
		check("redis", func(ctx context.Context) error { return d.redisClient.Ping(ctx).Err() })
	} else {
		services["redis"] = "not configured"
	}

	if d.db != nil {
		check("database", d.db.PingContext)
	} else {
		services["database"] = "not configured"
	}

	if d.mqtt != nil {
		check("mqtt", func(context.Context) error { return d.mqttConnected() })
	} else {
		services["mqtt"] = "not configured"
	}

	// 队列满时丢弃读数不影响健康状态，只做展示
	if d.persist != nil {
		services["persist"] = fmt.Sprintf("dropped=%d", d.persist.Dropped())
	}

	statusCode := http.StatusOK
	if status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
		d.logger.Warn("Health check failed", zap.Any("services", services))
	}

	writeJSON(w, statusCode, HealthCheckResponse{
		Status:    status,
		Timestamp: time.Now(),
		Services:  services,
	})
}

// Ready 就绪检查：hub 工作协程在运行，且已启用的 MQTT 接入已连上 broker
func (d *DoctorHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Second)
	defer cancel()

	resp := map[string]interface{}{}
	ready := true
	if _, err := d.hub.Stats(ctx); err != nil {
		ready = false
	}
	if d.mqtt != nil {
		connected := d.mqtt.IsConnected()
		resp["mqtt_connected"] = connected
		ready = ready && connected
	}
	if d.persist != nil {
		resp["dropped_readings"] = d.persist.Dropped()
	}
	resp["ready"] = ready

	statusCode := http.StatusOK
	if !ready {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, statusCode, resp)
}
