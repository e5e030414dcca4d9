package storage

import (
	"github.com/tiersim/blocksim/internal/device"
	"github.com/tiersim/blocksim/internal/model"
)

// DeviceState is the per-disk mutable state: its latency model,
// capacity counters, queue-admission counters, and cumulative metrics.
type DeviceState struct {
	ID   model.DiskId
	Name string

	Kind device.LatencyModel

	Total, Free int

	// ReservedUntil is the virtual timestamp at which the current tail
	// of the device's internal queue completes.
	ReservedUntil int64
	// CanRequeueAt is the timestamp before which a queue-full device
	// must defer new submissions.
	CanRequeueAt int64

	CurrentQueueLen, MaxQueueLen int

	// Metrics.
	TotalReq int64
	TotalQ   int64 // cumulative latency, including wait
	MaxQ     int64
	IdleTime int64
}

// NewDeviceState constructs a device with total == free == capacity
// and all counters zeroed.
func NewDeviceState(id model.DiskId, name string, kind device.LatencyModel, capacity, maxQueueLen int) *DeviceState {
	return &DeviceState{
		ID:          id,
		Name:        name,
		Kind:        kind,
		Total:       capacity,
		Free:        capacity,
		MaxQueueLen: maxQueueLen,
	}
}

// IdleTimeAt returns the device's accumulated idle time as of now.
// IdleTime itself accrues lazily, only when a submission arrives after
// a gap, so a currently-idle device undercounts until its next
// request; this adds the trailing gap without mutating the counter.
func (d *DeviceState) IdleTimeAt(now int64) int64 {
	if now > d.ReservedUntil {
		return d.IdleTime + (now - d.ReservedUntil)
	}
	return d.IdleTime
}

// AvgLatencyNs returns the mean observed latency (wait + service) in
// nanoseconds over every admitted request, or 0 if none has been
// admitted yet.
func (d *DeviceState) AvgLatencyNs() int64 {
	if d.TotalReq == 0 {
		return 0
	}
	return d.TotalQ / d.TotalReq
}

// IdlePercentage returns the fraction of elapsed virtual time (out of
// clock) the device spent idle, as a percentage in [0, 100].
func (d *DeviceState) IdlePercentage(clock int64) float64 {
	if clock <= 0 {
		return 0
	}
	pct := float64(d.IdleTimeAt(clock)) / float64(clock) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
