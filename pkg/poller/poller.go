// Package poller runs one repeating poll cycle per device and hands
// completed readings to the publish sink.
package poller

import (
	"sync"
	"time"

	"k8s.io/klog/v2"

	"modbridge/pkg/decoder"
	"modbridge/pkg/runtime"
	"modbridge/pkg/runtime/constant"
	"modbridge/pkg/transport"
)

// Registry hands out the shared serial connection and the key scoped lock of
// a device's line.
type Registry interface {
	Acquire(device *runtime.Device) (transport.Conn, sync.Locker, error)
	ReleaseAll()
}

// Sink accepts one reading per cycle. It must be safe to call from multiple
// polling goroutines and must not block indefinitely.
type Sink interface {
	Publish(reading *runtime.Reading) bool
}

type Poller struct {
	registry Registry
	// pacing is the delay between successive register reads of one sweep,
	// giving slow field devices time to recover between requests.
	pacing time.Duration
}

func NewPoller(registry Registry, pacing time.Duration) *Poller {
	return &Poller{registry: registry, pacing: pacing}
}

// PollOnce reads every configured register of the device in declaration
// order and assembles a reading. All per register failures are absorbed:
// a failed read or decode is logged and skipped, the sweep continues.
//
// The key scoped lock is held for the entire sweep so that no other device
// sharing the same physical line can interleave requests mid sweep.
func (p *Poller) PollOnce(device *runtime.Device) *runtime.Reading {
	reading := &runtime.Reading{
		DeviceName: device.Name,
		DeviceType: device.DeviceType,
		UnitID:     device.UnitID,
	}

	conn, lock, err := p.registry.Acquire(device)
	if err != nil {
		reading.Status = constant.Disconnected
		reading.Timestamp = time.Now().UTC()
		reading.Values = runtime.Values{}
		return reading
	}

	lock.Lock()
	values := make(runtime.Values, 0, len(device.Registers))
	for i, register := range device.Registers {
		words, err := p.read(conn, device, register)
		if err != nil {
			klog.V(2).InfoS("Failed to read register", "device", device.Name, "tag", register.Tag, "err", err)
		} else if value, err := decoder.Decode(words, register, device); err != nil {
			klog.V(2).InfoS("Failed to decode register", "device", device.Name, "tag", register.Tag, "err", err)
		} else {
			values = append(values, runtime.TagValue{Tag: register.Tag, Value: value})
		}

		if i < len(device.Registers)-1 {
			time.Sleep(p.pacing)
		}
	}
	lock.Unlock()

	klog.V(4).InfoS("Polled device", "device", device.Name, "decoded", len(values), "registers", len(device.Registers))

	if len(values) > 0 {
		reading.Status = constant.Connected
	} else {
		reading.Status = constant.Error
	}
	reading.Timestamp = time.Now().UTC()
	reading.Values = values
	return reading
}

func (p *Poller) read(conn transport.Conn, device *runtime.Device, register *runtime.Register) ([]uint16, error) {
	quantity := register.WordCount
	if quantity == 0 {
		quantity = 1
	}
	switch register.AccessKind {
	case constant.ReadCoil:
		return conn.ReadCoils(device.UnitID, register.Address, quantity)
	case constant.ReadDiscreteInput:
		return conn.ReadDiscreteInputs(device.UnitID, register.Address, quantity)
	case constant.ReadHoldingRegister:
		return conn.ReadHoldingRegisters(device.UnitID, register.Address, quantity)
	case constant.ReadInputRegister:
		return conn.ReadInputRegisters(device.UnitID, register.Address, quantity)
	}
	return nil, decoder.ErrUnsupportedAccessKind
}
