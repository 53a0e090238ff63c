package hub

import (
	"time"

	"wisefido-vitals-hub/internal/models"
)

// Aggregator 合并设备上报的部分字段，维护唯一的最新快照
type Aggregator struct {
	snapshot models.ReadingSnapshot
	now      func() time.Time
}

func NewAggregator(now func() time.Time) *Aggregator {
	if now == nil {
		now = time.Now
	}
	return &Aggregator{now: now}
}

// Apply overwrites every non-null field of the report. Null or absent fields
// never clear the snapshot. UpdatedAt moves only when something was applied.
func (a *Aggregator) Apply(r models.SensorReport) (models.ReadingSnapshot, bool) {
	hasNewData := false
	if r.Temperature != nil {
		v := *r.Temperature
		a.snapshot.Temperature = &v
		hasNewData = true
	}
	if r.Pulse != nil {
		v := *r.Pulse
		a.snapshot.Pulse = &v
		hasNewData = true
	}
	if r.SpO2 != nil {
		v := *r.SpO2
		a.snapshot.SpO2 = &v
		hasNewData = true
	}
	if hasNewData {
		a.snapshot.UpdatedAt = a.now()
	}
	return a.snapshot.Clone(), hasNewData
}

// Clear nulls the fields owned by a device class: a pulse oximeter reports both
// pulse and SpO2, a thermometer only temperature.
func (a *Aggregator) Clear(class models.DeviceClass) (models.ReadingSnapshot, bool) {
	cleared := false
	switch class {
	case models.DeviceClassPulse:
		cleared = a.snapshot.Pulse != nil || a.snapshot.SpO2 != nil
		a.snapshot.Pulse = nil
		a.snapshot.SpO2 = nil
	case models.DeviceClassTemperature:
		cleared = a.snapshot.Temperature != nil
		a.snapshot.Temperature = nil
	}
	if cleared {
		a.snapshot.UpdatedAt = a.now()
	}
	return a.snapshot.Clone(), cleared
}

func (a *Aggregator) Snapshot() models.ReadingSnapshot {
	return a.snapshot.Clone()
}
