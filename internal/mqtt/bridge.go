package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	mqttcommon "wisefido-vitals-hub/common/mqtt"
	"wisefido-vitals-hub/internal/hub"
	"wisefido-vitals-hub/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Subscriber MQTT 订阅接口（由 common/mqtt.Client 实现）
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqttcommon.MessageHandler) error
	Unsubscribe(topics ...string) error
}

// DeviceSink 接收设备连接事件（由 hub.Hub 实现）
type DeviceSink interface {
	Connect(conn hub.Conn)
	Receive(ctx context.Context, conn hub.Conn, raw []byte)
	Disconnect(conn hub.Conn)
}

// DeviceBridge 将 MQTT 设备接入 hub：
//
//	{prefix}/{deviceType}/{deviceId}/status  online | offline（offline 作为遗嘱消息）
//	{prefix}/{deviceType}/{deviceId}/data    {"temperatura"?, "pulso"?, "spo2"?}
type DeviceBridge struct {
	sub    Subscriber
	sink   DeviceSink
	prefix string
	qos    byte
	logger *zap.Logger

	mu      sync.Mutex
	devices map[string]*deviceConn // deviceType/deviceID -> virtual connection
}

func NewDeviceBridge(sub Subscriber, sink DeviceSink, prefix string, qos byte, logger *zap.Logger) *DeviceBridge {
	return &DeviceBridge{
		sub:     sub,
		sink:    sink,
		prefix:  strings.TrimSuffix(prefix, "/"),
		qos:     qos,
		logger:  logger,
		devices: make(map[string]*deviceConn),
	}
}

func (b *DeviceBridge) statusTopic() string { return b.prefix + "/+/+/status" }
func (b *DeviceBridge) dataTopic() string { return b.prefix + "/+/+/data" }

// Start 订阅设备状态与数据主题
func (b *DeviceBridge) Start() error {
	if err := b.sub.Subscribe(b.statusTopic(), b.qos, b.handleStatus); err != nil {
		return err
	}
	if err := b.sub.Subscribe(b.dataTopic(), b.qos, b.handleData); err != nil {
		return err
	}
	b.logger.Info("MQTT device bridge started",
		zap.String("status_topic", b.statusTopic()),
		zap.String("data_topic", b.dataTopic()),
	)
	return nil
}

// Stop 取消订阅并断开所有 MQTT 设备
func (b *DeviceBridge) Stop() {
	if err := b.sub.Unsubscribe(b.statusTopic(), b.dataTopic()); err != nil {
		b.logger.Warn("Failed to unsubscribe device topics", zap.Error(err))
	}
	b.disconnectAll()
}

// Reset 断开所有 MQTT 设备，在与 broker 重连后调用：
// 断线期间发布的遗嘱消息已丢失，仍在线的设备会随下一条 status/data 重新接入
func (b *DeviceBridge) Reset() {
	if n := b.disconnectAll(); n > 0 {
		b.logger.Info("MQTT devices reset after reconnect", zap.Int("devices", n))
	}
}

func (b *DeviceBridge) disconnectAll() int {
	b.mu.Lock()
	devices := b.devices
	b.devices = make(map[string]*deviceConn)
	b.mu.Unlock()

	for _, conn := range devices {
		b.sink.Disconnect(conn)
	}
	return len(devices)
}

func (b *DeviceBridge) handleStatus(topic string, payload []byte) error {
	deviceType, deviceID, err := b.parseTopic(topic, "status")
	if err != nil {
		return err
	}

	switch strings.ToLower(strings.TrimSpace(string(payload))) {
	case "online", models.StatusConnected:
		b.online(deviceType, deviceID)
	case "offline", models.StatusDisconnected:
		b.offline(deviceType, deviceID)
	default:
		return fmt.Errorf("unknown device status %q", payload)
	}
	return nil
}

func (b *DeviceBridge) handleData(topic string, payload []byte) error {
	deviceType, deviceID, err := b.parseTopic(topic, "data")
	if err != nil {
		return err
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(payload, &fields); err != nil {
		return fmt.Errorf("invalid data payload: %w", err)
	}
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["type"] = models.TypeSensorData
	fields["deviceId"] = deviceID

	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	// 未收到 online 的设备在首次上报时视为上线
	conn := b.online(deviceType, deviceID)
	b.sink.Receive(context.Background(), conn, raw)
	return nil
}

// deviceKey 每个 deviceType 独立一条虚拟连接，断开时只清理该类型拥有的字段
func deviceKey(deviceType, deviceID string) string {
	return deviceType + "/" + deviceID
}

func (b *DeviceBridge) online(deviceType, deviceID string) *deviceConn {
	key := deviceKey(deviceType, deviceID)
	b.mu.Lock()
	conn, ok := b.devices[key]
	if !ok {
		conn = &deviceConn{id: "mqtt-" + uuid.New().String(), deviceID: deviceID}
		b.devices[key] = conn
	}
	b.mu.Unlock()
	if ok {
		return conn
	}

	raw, _ := json.Marshal(models.InboundMessage{
		Type:       models.TypeDevice,
		DeviceType: deviceType,
		DeviceID:   deviceID,
	})
	b.sink.Connect(conn)
	b.sink.Receive(context.Background(), conn, raw)

	b.logger.Info("MQTT device online",
		zap.String("device_id", deviceID),
		zap.String("device_type", deviceType),
		zap.String("conn_id", conn.id),
	)
	return conn
}

func (b *DeviceBridge) offline(deviceType, deviceID string) {
	key := deviceKey(deviceType, deviceID)
	b.mu.Lock()
	conn, ok := b.devices[key]
	delete(b.devices, key)
	b.mu.Unlock()
	if !ok {
		return
	}

	b.sink.Disconnect(conn)
	b.logger.Info("MQTT device offline",
		zap.String("device_id", deviceID),
		zap.String("device_type", deviceType),
	)
}

// parseTopic 解析 {prefix}/{deviceType}/{deviceId}/{kind}
func (b *DeviceBridge) parseTopic(topic, kind string) (string, string, error) {
	rest, ok := strings.CutPrefix(topic, b.prefix+"/")
	if !ok {
		return "", "", fmt.Errorf("unexpected topic %s", topic)
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[2] != kind || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("unexpected topic %s", topic)
	}
	return parts[0], parts[1], nil
}

// deviceConn MQTT 设备的虚拟连接：不接收下行消息，存活由 broker 遗嘱消息判断
type deviceConn struct {
	id       string
	deviceID string
}

func (c *deviceConn) ID() string { return c.id }
func (c *deviceConn) RemoteAddr() string { return "mqtt/" + c.deviceID }
func (c *deviceConn) Send(_ []byte) bool { return false }
func (c *deviceConn) Ping() error { return hub.ErrProbeUnsupported }
func (c *deviceConn) Close() error { return nil }
