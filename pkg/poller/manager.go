package poller

import (
	"context"
	"sync"
	"time"

	"k8s.io/klog/v2"

	"modbridge/pkg/runtime"
)

// Options are the scheduling delays. They default to values tuned for slow
// RS485 field devices but are configuration, not policy.
type Options struct {
	// Pacing is the delay between successive register reads of one sweep.
	Pacing time.Duration `json:"pacing"`
	// StartStagger is the delay between starting consecutive device loops,
	// avoiding first time contention on shared ports.
	StartStagger time.Duration `json:"startStagger"`
	// FaultCooldown replaces the poll interval after an unexpected cycle
	// fault.
	FaultCooldown time.Duration `json:"faultCooldown"`
	// JoinTimeout bounds the wait for in flight sweeps at shutdown.
	JoinTimeout time.Duration `json:"joinTimeout"`
}

func DefaultOptions() Options {
	return Options{
		Pacing:        80 * time.Millisecond,
		StartStagger:  200 * time.Millisecond,
		FaultCooldown: 5 * time.Second,
		JoinTimeout:   5 * time.Second,
	}
}

// Manager runs one independent polling goroutine per device. Devices make
// progress in parallel except where serialized by a shared transport lock,
// and a fault in one device's cycle never affects another device's loop.
type Manager struct {
	devices  []*runtime.Device
	registry Registry
	sink     Sink
	poller   *Poller
	opts     Options
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewManager(devices []*runtime.Device, registry Registry, sink Sink, opts Options) *Manager {
	return &Manager{
		devices:  devices,
		registry: registry,
		sink:     sink,
		poller:   NewPoller(registry, opts.Pacing),
		opts:     opts,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the device loops, staggering consecutive starts.
func (m *Manager) Start() {
	for i, device := range m.devices {
		m.wg.Add(1)
		go m.run(device)
		if i < len(m.devices)-1 {
			time.Sleep(m.opts.StartStagger)
		}
	}
	klog.V(1).InfoS("Started polling", "devices", len(m.devices))
}

func (m *Manager) run(device *runtime.Device) {
	defer m.wg.Done()
	klog.V(1).InfoS("Started device loop", "device", device.Name, "interval", device.PollInterval)

	for {
		select {
		case <-m.stopCh:
			klog.V(2).InfoS("Stopped device loop", "device", device.Name)
			return
		default:
		}

		delay := device.PollInterval
		if !m.cycle(device) {
			delay = m.opts.FaultCooldown
		}

		select {
		case <-m.stopCh:
			klog.V(2).InfoS("Stopped device loop", "device", device.Name)
			return
		case <-time.After(delay):
		}
	}
}

// cycle runs one poll and publish step. An unexpected fault is caught here
// so the loop can cool down and resume instead of dying.
func (m *Manager) cycle(device *runtime.Device) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			klog.ErrorS(nil, "Polling cycle fault", "device", device.Name, "fault", r)
			ok = false
		}
	}()

	reading := m.poller.PollOnce(device)
	if !m.sink.Publish(reading) {
		klog.V(2).InfoS("Failed to publish reading", "device", device.Name, "status", reading.Status)
	}
	return true
}

// Shutdown stops every device loop, waits (bounded) for in flight sweeps to
// finish and then releases the transports, so a connection is never closed
// mid read.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.stopOnce.Do(func() { close(m.stopCh) })

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		klog.V(1).InfoS("Abandoned in flight sweeps", "err", ctx.Err())
	case <-time.After(m.opts.JoinTimeout):
		klog.V(1).InfoS("Abandoned in flight sweeps", "timeout", m.opts.JoinTimeout)
	}

	m.registry.ReleaseAll()
	return nil
}
