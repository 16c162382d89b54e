// Package transport owns one logical serial connection per distinct
// (port, baudRate, parity) triple, shared by every device on that line.
package transport

import (
	"sync"

	"k8s.io/klog/v2"

	"modbridge/pkg/runtime"
	"modbridge/pkg/runtime/constant"
)

// Key identifies one physical serial line. Devices with equal keys share one
// connection and must never issue requests concurrently.
type Key struct {
	Port     string
	BaudRate int
	Parity   constant.Parity
}

func KeyOf(device *runtime.Device) Key {
	return Key{
		Port:     device.Port,
		BaudRate: device.BaudRate,
		Parity:   device.Parity,
	}
}

type entry struct {
	conn Conn
	mu   sync.Mutex
}

// Registry lazily opens connections and hands out the key scoped lock that
// serializes sweeps on a shared line.
type Registry struct {
	mu      sync.Mutex
	entries map[Key]*entry
	open    func(*runtime.Device) (Conn, error)
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[Key]*entry),
		open:    openSerial,
	}
}

// NewRegistryWithOpener is for tests and alternative transports.
func NewRegistryWithOpener(open func(*runtime.Device) (Conn, error)) *Registry {
	return &Registry{
		entries: make(map[Key]*entry),
		open:    open,
	}
}

// Acquire returns the connection and the key scoped lock for the device's
// line, opening the connection on first use. The registry lock is held only
// for the check and create step, never during register reads, so devices on
// different ports do not block each other here. A failed open caches
// nothing; the next caller retries.
func (r *Registry) Acquire(device *runtime.Device) (Conn, sync.Locker, error) {
	key := KeyOf(device)

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, exist := r.entries[key]; exist {
		return e.conn, &e.mu, nil
	}

	conn, err := r.open(device)
	if err != nil {
		klog.V(2).InfoS("Failed to open transport", "port", key.Port, "err", err)
		return nil, nil, ErrConnectTransport
	}

	e := &entry{conn: conn}
	r.entries[key] = e
	return e.conn, &e.mu, nil
}

// ReleaseAll closes every cached connection. Called once at shutdown,
// idempotent.
func (r *Registry) ReleaseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, e := range r.entries {
		klog.V(2).InfoS("Closing transport", "port", key.Port)
		if err := e.conn.Close(); err != nil {
			klog.V(2).InfoS("Failed to close transport", "port", key.Port, "err", err)
		}
		delete(r.entries, key)
	}
}
