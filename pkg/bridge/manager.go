// Package bridge wires loaded devices, the polling scheduler and the mqtt
// publisher together, and exposes the read only status model served over
// http.
package bridge

import (
	"context"
	"os"
	"sync"
	"time"

	"k8s.io/klog/v2"

	"modbridge/pkg/poller"
	"modbridge/pkg/publisher"
	"modbridge/pkg/runtime"
	"modbridge/pkg/transport"
	"modbridge/pkg/utils/uuidutil"
)

type Manager struct {
	meta      *Meta
	devices   []*runtime.Device
	deviceMap map[string]*runtime.Device
	publisher *publisher.Publisher
	registry  *transport.Registry
	pollMgr   *poller.Manager
	readings  *sync.Map
}

func NewManager(devices []*runtime.Device, pub *publisher.Publisher, opts poller.Options) *Manager {
	m := &Manager{
		meta: &Meta{
			ID:        uuidutil.ShortUUID(),
			StartTime: time.Now().UTC(),
		},
		devices:   devices,
		deviceMap: make(map[string]*runtime.Device, len(devices)),
		publisher: pub,
		registry:  transport.NewRegistry(),
		readings:  &sync.Map{},
	}
	for _, device := range devices {
		m.deviceMap[device.Name] = device
	}
	m.pollMgr = poller.NewManager(devices, m.registry, m, opts)
	return m
}

// Start launches the polling loops. Returns immediately; staggered startup
// happens in the background.
func (m *Manager) Start() {
	go m.pollMgr.Start()
}

// Publish records the reading for the status api and forwards it to the
// mqtt publisher. It is the sink handed to every polling goroutine.
func (m *Manager) Publish(reading *runtime.Reading) bool {
	m.readings.Store(reading.DeviceName, reading)
	return m.publisher.Publish(reading)
}

func (m *Manager) Shutdown(ctx context.Context) error {
	if err := m.pollMgr.Shutdown(ctx); err != nil {
		klog.V(2).InfoS("Failed to stop polling", "err", err)
	}
	m.publisher.Disconnect()
	klog.V(1).InfoS("Stopped bridge")
	return nil
}

func (m *Manager) ListDevices(filter *runtime.DeviceFilter) []*DeviceSummary {
	predicates := runtime.ParseTypeFilter(filter)
	summaries := make([]*DeviceSummary, 0, len(m.devices))
	for _, device := range m.devices {
		if !runtime.MatchDevice(device, predicates) {
			continue
		}
		summaries = append(summaries, m.summarize(device))
	}
	return summaries
}

func (m *Manager) GetDeviceByName(name string) (*DeviceDetail, error) {
	device, exist := m.deviceMap[name]
	if !exist {
		return nil, os.ErrNotExist
	}
	detail := &DeviceDetail{Device: device}
	if v, ok := m.readings.Load(name); ok {
		detail.LastReading = v.(*runtime.Reading)
	}
	return detail, nil
}

func (m *Manager) summarize(device *runtime.Device) *DeviceSummary {
	summary := &DeviceSummary{
		Name:         device.Name,
		DeviceType:   device.DeviceType,
		UnitID:       device.UnitID,
		Port:         device.Port,
		PollInterval: device.PollInterval.String(),
		Registers:    len(device.Registers),
	}
	if v, ok := m.readings.Load(device.Name); ok {
		reading := v.(*runtime.Reading)
		summary.Status = reading.Status.String()
		summary.LastPoll = reading.Timestamp
	}
	return summary
}
