package poller

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modbridge/pkg/runtime"
	"modbridge/pkg/runtime/constant"
	"modbridge/pkg/transport"
)

type fakeConn struct {
	mu        sync.Mutex
	holding   map[uint16][]uint16
	coils     map[uint16][]uint16
	failTags  map[uint16]bool
	readOrder []uint16
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		holding:  map[uint16][]uint16{},
		coils:    map[uint16][]uint16{},
		failTags: map[uint16]bool{},
	}
}

func (f *fakeConn) read(table map[uint16][]uint16, address uint16) ([]uint16, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readOrder = append(f.readOrder, address)
	if f.failTags[address] {
		return nil, errors.New("timeout")
	}
	words, ok := table[address]
	if !ok {
		return nil, errors.New("illegal address")
	}
	return words, nil
}

func (f *fakeConn) ReadCoils(unitID uint8, address, quantity uint16) ([]uint16, error) {
	return f.read(f.coils, address)
}

func (f *fakeConn) ReadDiscreteInputs(unitID uint8, address, quantity uint16) ([]uint16, error) {
	return f.read(f.coils, address)
}

func (f *fakeConn) ReadHoldingRegisters(unitID uint8, address, quantity uint16) ([]uint16, error) {
	return f.read(f.holding, address)
}

func (f *fakeConn) ReadInputRegisters(unitID uint8, address, quantity uint16) ([]uint16, error) {
	return f.read(f.holding, address)
}

func (f *fakeConn) Close() error { return nil }

func testDevice(registers ...*runtime.Register) *runtime.Device {
	return &runtime.Device{
		Name:         "Boiler Room",
		DeviceType:   "boiler",
		UnitID:       1,
		Port:         "/dev/ttyUSB0",
		BaudRate:     9600,
		PollInterval: time.Second,
		ByteOrder:    constant.BigEndian,
		WordOrder:    constant.BigEndian,
		Registers:    registers,
	}
}

func TestPollOnceDecodesSweep(t *testing.T) {
	conn := newFakeConn()
	conn.holding[0] = []uint16{250}
	conn.coils[1] = []uint16{1}

	registry := transport.NewRegistryWithOpener(func(d *runtime.Device) (transport.Conn, error) {
		return conn, nil
	})
	poller := NewPoller(registry, 0)

	device := testDevice(
		&runtime.Register{Tag: "temperature", Address: 0, AccessKind: constant.ReadHoldingRegister, WordCount: 1, DataType: constant.UINT16, Divider: 10.0, Multiplier: 1.0},
		&runtime.Register{Tag: "running", Address: 1, AccessKind: constant.ReadCoil, WordCount: 1, DataType: constant.UINT16, Divider: 1.0, Multiplier: 1.0},
	)

	reading := poller.PollOnce(device)

	assert.Equal(t, constant.Connected, reading.Status)
	assert.Equal(t, "Boiler Room", reading.DeviceName)
	assert.Len(t, reading.Values, 2)

	temperature, ok := reading.Values.Get("temperature")
	require.True(t, ok)
	assert.Equal(t, float64(25), temperature)

	running, ok := reading.Values.Get("running")
	require.True(t, ok)
	assert.Equal(t, float64(1), running)

	assert.False(t, reading.Timestamp.IsZero())
}

func TestPollOnceDisconnected(t *testing.T) {
	registry := transport.NewRegistryWithOpener(func(d *runtime.Device) (transport.Conn, error) {
		return nil, errors.New("no such device")
	})
	poller := NewPoller(registry, 0)

	device := testDevice(
		&runtime.Register{Tag: "temperature", Address: 0, AccessKind: constant.ReadHoldingRegister, WordCount: 1, DataType: constant.UINT16, Divider: 1.0, Multiplier: 1.0},
	)

	reading := poller.PollOnce(device)

	assert.Equal(t, constant.Disconnected, reading.Status)
	assert.NotNil(t, reading.Values)
	assert.Empty(t, reading.Values)
	assert.False(t, reading.Timestamp.IsZero())
}

func TestPollOnceSkipsFailedRegisters(t *testing.T) {
	conn := newFakeConn()
	conn.holding[0] = []uint16{100}
	conn.failTags[1] = true
	conn.holding[2] = []uint16{300}

	registry := transport.NewRegistryWithOpener(func(d *runtime.Device) (transport.Conn, error) {
		return conn, nil
	})
	poller := NewPoller(registry, 0)

	device := testDevice(
		&runtime.Register{Tag: "a", Address: 0, AccessKind: constant.ReadHoldingRegister, WordCount: 1, DataType: constant.UINT16, Divider: 1.0, Multiplier: 1.0},
		&runtime.Register{Tag: "b", Address: 1, AccessKind: constant.ReadHoldingRegister, WordCount: 1, DataType: constant.UINT16, Divider: 1.0, Multiplier: 1.0},
		&runtime.Register{Tag: "c", Address: 2, AccessKind: constant.ReadHoldingRegister, WordCount: 1, DataType: constant.UINT16, Divider: 1.0, Multiplier: 1.0},
	)

	reading := poller.PollOnce(device)

	assert.Equal(t, constant.Connected, reading.Status)
	require.Len(t, reading.Values, 2)
	assert.Equal(t, "a", reading.Values[0].Tag)
	assert.Equal(t, "c", reading.Values[1].Tag)

	// every register was attempted, in declaration order
	assert.Equal(t, []uint16{0, 1, 2}, conn.readOrder)
}

func TestPollOnceAllFailedIsError(t *testing.T) {
	conn := newFakeConn()
	conn.failTags[0] = true

	registry := transport.NewRegistryWithOpener(func(d *runtime.Device) (transport.Conn, error) {
		return conn, nil
	})
	poller := NewPoller(registry, 0)

	device := testDevice(
		&runtime.Register{Tag: "a", Address: 0, AccessKind: constant.ReadHoldingRegister, WordCount: 1, DataType: constant.UINT16, Divider: 1.0, Multiplier: 1.0},
	)

	reading := poller.PollOnce(device)

	assert.Equal(t, constant.Error, reading.Status)
	assert.Empty(t, reading.Values)
}

func TestPollOnceSweepAtomicOnSharedLine(t *testing.T) {
	conn := newFakeConn()
	conn.holding[0] = []uint16{1}
	conn.holding[1] = []uint16{2}
	conn.holding[10] = []uint16{3}
	conn.holding[11] = []uint16{4}

	registry := transport.NewRegistryWithOpener(func(d *runtime.Device) (transport.Conn, error) {
		return conn, nil
	})
	poller := NewPoller(registry, time.Millisecond)

	first := testDevice(
		&runtime.Register{Tag: "a", Address: 0, AccessKind: constant.ReadHoldingRegister, WordCount: 1, DataType: constant.UINT16, Divider: 1.0, Multiplier: 1.0},
		&runtime.Register{Tag: "b", Address: 1, AccessKind: constant.ReadHoldingRegister, WordCount: 1, DataType: constant.UINT16, Divider: 1.0, Multiplier: 1.0},
	)
	second := testDevice(
		&runtime.Register{Tag: "c", Address: 10, AccessKind: constant.ReadHoldingRegister, WordCount: 1, DataType: constant.UINT16, Divider: 1.0, Multiplier: 1.0},
		&runtime.Register{Tag: "d", Address: 11, AccessKind: constant.ReadHoldingRegister, WordCount: 1, DataType: constant.UINT16, Divider: 1.0, Multiplier: 1.0},
	)
	second.Name = "Pump"
	second.UnitID = 2

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		poller.PollOnce(first)
	}()
	go func() {
		defer wg.Done()
		poller.PollOnce(second)
	}()
	wg.Wait()

	require.Len(t, conn.readOrder, 4)
	// one device's sweep finished before the other started
	if conn.readOrder[0] == 0 {
		assert.Equal(t, []uint16{0, 1, 10, 11}, conn.readOrder)
	} else {
		assert.Equal(t, []uint16{10, 11, 0, 1}, conn.readOrder)
	}
}
