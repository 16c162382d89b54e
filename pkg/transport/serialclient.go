package transport

import (
	"github.com/goburrow/modbus"
	"k8s.io/klog/v2"

	"modbridge/pkg/runtime"
	"modbridge/pkg/utils/binutil"
)

// Conn is one logical serial line connection. The read methods issue one
// modbus request each and must only be called while holding the key scoped
// lock handed out by the registry, because devices with different unit ids
// share the request/response cycle of the line.
type Conn interface {
	ReadCoils(unitID uint8, address, quantity uint16) ([]uint16, error)
	ReadDiscreteInputs(unitID uint8, address, quantity uint16) ([]uint16, error)
	ReadHoldingRegisters(unitID uint8, address, quantity uint16) ([]uint16, error)
	ReadInputRegisters(unitID uint8, address, quantity uint16) ([]uint16, error)
	Close() error
}

// serialClient wraps the goburrow RTU client. Framing, CRC and timeouts are
// owned by the protocol library; this adapter only converts payload bytes to
// register words.
type serialClient struct {
	handler *modbus.RTUClientHandler
	client  modbus.Client
}

func openSerial(device *runtime.Device) (Conn, error) {
	handler := modbus.NewRTUClientHandler(device.Port)
	handler.BaudRate = device.BaudRate
	handler.DataBits = device.DataBits
	handler.Parity = device.Parity.String()
	handler.StopBits = device.StopBits
	handler.Timeout = device.Timeout

	if err := handler.Connect(); err != nil {
		klog.V(2).InfoS("Failed to connect serial port", "port", device.Port, "err", err)
		return nil, err
	}
	klog.V(2).InfoS("Connected serial port", "port", device.Port, "baudRate", device.BaudRate, "parity", device.Parity)

	return &serialClient{
		handler: handler,
		client:  modbus.NewClient(handler),
	}, nil
}

func (sc *serialClient) ReadCoils(unitID uint8, address, quantity uint16) ([]uint16, error) {
	sc.handler.SlaveId = unitID
	results, err := sc.client.ReadCoils(address, quantity)
	if err != nil {
		return nil, err
	}
	return binutil.ExpandBits(results, int(quantity)), nil
}

func (sc *serialClient) ReadDiscreteInputs(unitID uint8, address, quantity uint16) ([]uint16, error) {
	sc.handler.SlaveId = unitID
	results, err := sc.client.ReadDiscreteInputs(address, quantity)
	if err != nil {
		return nil, err
	}
	return binutil.ExpandBits(results, int(quantity)), nil
}

func (sc *serialClient) ReadHoldingRegisters(unitID uint8, address, quantity uint16) ([]uint16, error) {
	sc.handler.SlaveId = unitID
	results, err := sc.client.ReadHoldingRegisters(address, quantity)
	if err != nil {
		return nil, err
	}
	return binutil.BytesToWords(results), nil
}

func (sc *serialClient) ReadInputRegisters(unitID uint8, address, quantity uint16) ([]uint16, error) {
	sc.handler.SlaveId = unitID
	results, err := sc.client.ReadInputRegisters(address, quantity)
	if err != nil {
		return nil, err
	}
	return binutil.BytesToWords(results), nil
}

func (sc *serialClient) Close() error {
	return sc.handler.Close()
}
