package transport

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modbridge/pkg/runtime"
	"modbridge/pkg/runtime/constant"
)

type fakeConn struct {
	closed int
}

func (f *fakeConn) ReadCoils(unitID uint8, address, quantity uint16) ([]uint16, error) {
	return nil, nil
}

func (f *fakeConn) ReadDiscreteInputs(unitID uint8, address, quantity uint16) ([]uint16, error) {
	return nil, nil
}

func (f *fakeConn) ReadHoldingRegisters(unitID uint8, address, quantity uint16) ([]uint16, error) {
	return nil, nil
}

func (f *fakeConn) ReadInputRegisters(unitID uint8, address, quantity uint16) ([]uint16, error) {
	return nil, nil
}

func (f *fakeConn) Close() error {
	f.closed++
	return nil
}

func device(name, port string, baudRate int) *runtime.Device {
	return &runtime.Device{
		Name:     name,
		Port:     port,
		BaudRate: baudRate,
		Parity:   constant.NoParity,
	}
}

func TestAcquireSharesConnectionPerLine(t *testing.T) {
	opens := 0
	registry := NewRegistryWithOpener(func(d *runtime.Device) (Conn, error) {
		opens++
		return &fakeConn{}, nil
	})

	first := device("boiler", "/dev/ttyUSB0", 9600)
	second := device("meter", "/dev/ttyUSB0", 9600)

	connA, lockA, err := registry.Acquire(first)
	require.NoError(t, err)
	connB, lockB, err := registry.Acquire(second)
	require.NoError(t, err)

	assert.Equal(t, 1, opens)
	assert.Same(t, connA, connB)
	assert.Same(t, lockA, lockB)
}

func TestAcquireDistinctLines(t *testing.T) {
	opens := 0
	registry := NewRegistryWithOpener(func(d *runtime.Device) (Conn, error) {
		opens++
		return &fakeConn{}, nil
	})

	connA, lockA, err := registry.Acquire(device("boiler", "/dev/ttyUSB0", 9600))
	require.NoError(t, err)
	connB, lockB, err := registry.Acquire(device("meter", "/dev/ttyUSB1", 9600))
	require.NoError(t, err)
	connC, _, err := registry.Acquire(device("pump", "/dev/ttyUSB0", 19200))
	require.NoError(t, err)

	assert.Equal(t, 3, opens)
	assert.NotSame(t, connA, connB)
	assert.NotSame(t, connA, connC)
	assert.NotSame(t, lockA, lockB)
}

func TestAcquireFailedOpenNotCached(t *testing.T) {
	fail := true
	opens := 0
	registry := NewRegistryWithOpener(func(d *runtime.Device) (Conn, error) {
		opens++
		if fail {
			return nil, errors.New("no such device")
		}
		return &fakeConn{}, nil
	})

	d := device("boiler", "/dev/ttyUSB0", 9600)

	_, _, err := registry.Acquire(d)
	assert.ErrorIs(t, err, ErrConnectTransport)

	fail = false
	conn, lock, err := registry.Acquire(d)
	require.NoError(t, err)
	assert.NotNil(t, conn)
	assert.NotNil(t, lock)
	assert.Equal(t, 2, opens)
}

func TestReleaseAllIdempotent(t *testing.T) {
	conn := &fakeConn{}
	registry := NewRegistryWithOpener(func(d *runtime.Device) (Conn, error) {
		return conn, nil
	})

	_, _, err := registry.Acquire(device("boiler", "/dev/ttyUSB0", 9600))
	require.NoError(t, err)

	registry.ReleaseAll()
	registry.ReleaseAll()
	assert.Equal(t, 1, conn.closed)

	// reopened on next acquire
	_, _, err = registry.Acquire(device("boiler", "/dev/ttyUSB0", 9600))
	require.NoError(t, err)
}

func TestAcquireConcurrentSingleOpen(t *testing.T) {
	opens := 0
	registry := NewRegistryWithOpener(func(d *runtime.Device) (Conn, error) {
		opens++
		return &fakeConn{}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := registry.Acquire(device("boiler", "/dev/ttyUSB0", 9600))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, opens)
}
