package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInbound_Device(t *testing.T) {
	msg, err := ParseInbound([]byte(`{"type":"device","deviceType":"pulso","deviceId":"d1"}`))
	require.NoError(t, err)
	assert.Equal(t, TypeDevice, msg.Type)
	assert.Equal(t, "pulso", msg.DeviceType)
	assert.Equal(t, "d1", msg.DeviceID)
}

func TestParseInbound_SensorDataNullAndAbsent(t *testing.T) {
	msg, err := ParseInbound([]byte(`{"type":"sensor-data","pulso":72,"spo2":null}`))
	require.NoError(t, err)

	r := msg.Report()
	require.NotNil(t, r.Pulse)
	assert.Equal(t, 72.0, *r.Pulse)
	assert.Nil(t, r.SpO2)
	assert.Nil(t, r.Temperature)
}

func TestParseInbound_TemperatureAlias(t *testing.T) {
	msg, err := ParseInbound([]byte(`{"type":"sensor-data","temperature":36.6}`))
	require.NoError(t, err)
	require.NotNil(t, msg.Report().Temperature)
	assert.Equal(t, 36.6, *msg.Report().Temperature)

	msg, err = ParseInbound([]byte(`{"type":"sensor-data","temperature":30,"temperatura":37.1}`))
	require.NoError(t, err)
	assert.Equal(t, 37.1, *msg.Report().Temperature)
}

func TestParseInbound_Errors(t *testing.T) {
	_, err := ParseInbound([]byte(`not json`))
	assert.Error(t, err)

	_, err = ParseInbound([]byte(`{"deviceId":"d1"}`))
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "type", vErr.Field)

	_, err = ParseInbound([]byte(`{"type":"firmware-update"}`))
	assert.ErrorIs(t, err, ErrUnknownType)

	_, err = ParseInbound([]byte(`{"type":"sensor-data","pulso":"fast"}`))
	assert.Error(t, err)
}

func TestSensorDataEvent_JSON(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	ev := NewSensorDataEvent(ReadingSnapshot{Pulse: Float64(75), SpO2: Float64(98), UpdatedAt: at})

	raw, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"sensor-data","temperatura":null,"pulso":75,"spo2":98,"timestamp":1700000000123}`, string(raw))

	raw, err = json.Marshal(NewSensorDataEvent(ReadingSnapshot{}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"sensor-data","temperatura":null,"pulso":null,"spo2":null,"timestamp":null}`, string(raw))
}

func TestStatusEvents_JSON(t *testing.T) {
	raw, err := json.Marshal(NewDevicesStatusEvent(false, true))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"devices-status","temperatura":"disconnected","pulso":"connected"}`, string(raw))

	raw, err = json.Marshal(NewDeviceStatusEvent("pulso", StatusConnected, "d1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"device-status","device":"pulso","status":"connected","deviceId":"d1"}`, string(raw))
}

func TestParseDeviceClass(t *testing.T) {
	assert.Equal(t, DeviceClassPulse, ParseDeviceClass("pulso"))
	assert.Equal(t, DeviceClassPulse, ParseDeviceClass("Pulse"))
	assert.Equal(t, DeviceClassTemperature, ParseDeviceClass("temperatura"))
	assert.Equal(t, DeviceClassOther, ParseDeviceClass("glucometer"))
	assert.Equal(t, DeviceClassOther, ParseDeviceClass(""))
}

func TestReadingSnapshot_Clone(t *testing.T) {
	s := ReadingSnapshot{Pulse: Float64(70)}
	c := s.Clone()
	*c.Pulse = 90
	assert.Equal(t, 70.0, *s.Pulse)
	assert.True(t, s.HasData())
	assert.False(t, ReadingSnapshot{}.HasData())
}
