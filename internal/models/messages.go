package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Inbound message types.
const (
	TypeDevice     = "device"
	TypeWebClient  = "web-client"
	TypeSensorData = "sensor-data"
)

// Outbound event types.
const (
	TypeDeviceStatus  = "device-status"
	TypeDevicesStatus = "devices-status"
)

// ErrUnknownType is returned for well-formed messages whose type is not handled.
var ErrUnknownType = errors.New("unknown message type")

// ValidationError represents a message validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// InboundMessage 客户端上行消息（通过 type 字段区分）
type InboundMessage struct {
	Type string `json:"type"`

	// device
	DeviceType string `json:"deviceType,omitempty"`
	DeviceID   string `json:"deviceId,omitempty"`

	// web-client
	Token string `json:"token,omitempty"`

	// sensor-data
	Temperatura *float64 `json:"temperatura,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Pulso       *float64 `json:"pulso,omitempty"`
	SpO2        *float64 `json:"spo2,omitempty"`
}

// ParseInbound decodes and validates one inbound message.
func ParseInbound(raw []byte) (*InboundMessage, error) {
	var msg InboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("invalid message payload: %w", err)
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Validate validates an InboundMessage
func (m *InboundMessage) Validate() error {
	switch m.Type {
	case "":
		return &ValidationError{Field: "type", Message: "type is required"}
	case TypeDevice, TypeWebClient, TypeSensorData:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownType, m.Type)
	}
}

// Report extracts the sensor fields of a sensor-data message.
// "temperatura" wins over the "temperature" alias when both are present.
func (m *InboundMessage) Report() SensorReport {
	temp := m.Temperatura
	if temp == nil {
		temp = m.Temperature
	}
	return SensorReport{
		Temperature: temp,
		Pulse:       m.Pulso,
		SpO2:        m.SpO2,
		DeviceID:    m.DeviceID,
	}
}

// DeviceStatusEvent 单个设备连接状态变化
type DeviceStatusEvent struct {
	Type     string `json:"type"`
	Device   string `json:"device"`
	Status   string `json:"status"`
	DeviceID string `json:"deviceId,omitempty"`
}

// DevicesStatusEvent 按设备类别汇总的连接状态（仅发送给新注册的观察者）
type DevicesStatusEvent struct {
	Type        string `json:"type"`
	Temperatura string `json:"temperatura"`
	Pulso       string `json:"pulso"`
}

// SensorDataEvent 完整快照广播，timestamp 为毫秒时间戳
type SensorDataEvent struct {
	Type        string   `json:"type"`
	Temperatura *float64 `json:"temperatura"`
	Pulso       *float64 `json:"pulso"`
	SpO2        *float64 `json:"spo2"`
	Timestamp   *int64   `json:"timestamp"`
}

func NewDeviceStatusEvent(deviceType, status, deviceID string) DeviceStatusEvent {
	return DeviceStatusEvent{Type: TypeDeviceStatus, Device: deviceType, Status: status, DeviceID: deviceID}
}

func NewDevicesStatusEvent(temperatureConnected, pulseConnected bool) DevicesStatusEvent {
	return DevicesStatusEvent{
		Type:        TypeDevicesStatus,
		Temperatura: connectivity(temperatureConnected),
		Pulso:       connectivity(pulseConnected),
	}
}

func NewSensorDataEvent(s ReadingSnapshot) SensorDataEvent {
	ev := SensorDataEvent{
		Type:        TypeSensorData,
		Temperatura: s.Temperature,
		Pulso:       s.Pulse,
		SpO2:        s.SpO2,
	}
	if !s.UpdatedAt.IsZero() {
		ms := s.UpdatedAt.UnixMilli()
		ev.Timestamp = &ms
	}
	return ev
}

func connectivity(connected bool) string {
	if connected {
		return StatusConnected
	}
	return StatusDisconnected
}
