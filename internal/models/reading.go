package models

import (
	"strings"
	"time"
)

// DeviceClass 设备类别，决定断开连接时清除快照中的哪些字段
type DeviceClass int

const (
	DeviceClassOther DeviceClass = iota
	DeviceClassTemperature
	DeviceClassPulse
)

// Wire values used by devices and web clients.
const (
	DeviceTypeTemperature = "temperatura"
	DeviceTypePulse       = "pulso"

	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"

	UnknownDeviceID = "unknown"
)

// ParseDeviceClass maps a device's self-declared type to its class.
// English aliases are accepted for firmware that does not use the Spanish names.
func ParseDeviceClass(deviceType string) DeviceClass {
	switch strings.ToLower(strings.TrimSpace(deviceType)) {
	case DeviceTypeTemperature, "temperature":
		return DeviceClassTemperature
	case DeviceTypePulse, "pulse":
		return DeviceClassPulse
	default:
		return DeviceClassOther
	}
}

func (c DeviceClass) String() string {
	switch c {
	case DeviceClassTemperature:
		return "temperature"
	case DeviceClassPulse:
		return "pulse"
	default:
		return "other"
	}
}

// ReadingSnapshot 最新的合并传感器读数（每个字段独立可空）
type ReadingSnapshot struct {
	Temperature *float64  `json:"temperatura"`
	Pulse       *float64  `json:"pulso"`
	SpO2        *float64  `json:"spo2"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasData reports whether any field is non-null.
func (s ReadingSnapshot) HasData() bool {
	return s.Temperature != nil || s.Pulse != nil || s.SpO2 != nil
}

// Clone returns a copy that shares no pointers with s.
func (s ReadingSnapshot) Clone() ReadingSnapshot {
	return ReadingSnapshot{
		Temperature: copyFloat(s.Temperature),
		Pulse:       copyFloat(s.Pulse),
		SpO2:        copyFloat(s.SpO2),
		UpdatedAt:   s.UpdatedAt,
	}
}

// SensorReport 设备上报的部分字段，nil 表示缺失或 null
type SensorReport struct {
	Temperature *float64
	Pulse       *float64
	SpO2        *float64
	DeviceID    string
}

// Identity 已验证的用户身份
type Identity struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// Reading 持久化的读数记录
type Reading struct {
	UserID      string    `json:"user_id"`
	HeartRate   *float64  `json:"heart_rate"`
	SpO2        *float64  `json:"spo2"`
	Temperature *float64  `json:"temperature"`
	DeviceID    string    `json:"device_id"`
	RecordedAt  time.Time `json:"timestamp"`
}

// DeviceInfo is one connected device as reported by hub stats.
type DeviceInfo struct {
	DeviceID    string    `json:"device_id"`
	DeviceType  string    `json:"device_type"`
	ConnectedAt time.Time `json:"connected_at"`
}

// HubStats 中心状态快照（用于状态日志和 HTTP 状态接口）
type HubStats struct {
	Devices     []DeviceInfo    `json:"devices"`
	Observers   int             `json:"observers"`
	Connections int             `json:"connections"`
	ActiveUser  *Identity       `json:"active_user"`
	Snapshot    ReadingSnapshot `json:"snapshot"`
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 {
	return &v
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
