// Package config loads device definitions from thingsboard gateway style
// connector files. A malformed register or device is dropped with a logged
// configuration error; the bridge keeps the rest.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"k8s.io/klog/v2"

	"modbridge/pkg/runtime"
	"modbridge/pkg/runtime/constant"
)

const (
	defaultBaudRate   = 9600
	defaultStopBits   = 1
	defaultByteSize   = 8
	defaultTimeoutMs  = 35
	defaultPollPeriod = 1000
	defaultTypeTag    = "16uint"
)

// LoadDir parses every *.json connector file in dir, sorted by name.
func LoadDir(dir string) ([]*runtime.Device, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	devices := make([]*runtime.Device, 0)
	for _, path := range matches {
		ds, err := ParseFile(path)
		if err != nil {
			klog.ErrorS(err, "Failed to parse connector file", "file", path)
			continue
		}
		devices = append(devices, ds...)
	}
	klog.V(1).InfoS("Loaded devices", "devices", len(devices), "files", len(matches))
	return devices, nil
}

// ParseFile parses one connector file into validated devices.
func ParseFile(path string) ([]*runtime.Device, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var connector connectorFile
	if err := json.Unmarshal(data, &connector); err != nil {
		return nil, err
	}

	devices := make([]*runtime.Device, 0, len(connector.Master.Slaves))
	for _, slave := range connector.Master.Slaves {
		device, err := parseSlave(slave)
		if err != nil {
			klog.ErrorS(err, "Dropped device", "device", slave.DeviceName, "connector", connector.Name)
			continue
		}
		if device == nil {
			klog.V(1).InfoS("Skipped device without registers", "device", slave.DeviceName, "connector", connector.Name)
			continue
		}
		klog.V(1).InfoS("Loaded device", "device", device.Name, "port", device.Port, "registers", len(device.Registers), "connector", connector.Name)
		devices = append(devices, device)
	}
	return devices, nil
}

func parseSlave(slave slaveConfig) (*runtime.Device, error) {
	registers := make([]*runtime.Register, 0, len(slave.Attributes)+len(slave.Timeseries))
	for _, rc := range append(append([]registerConfig{}, slave.Attributes...), slave.Timeseries...) {
		register, err := parseRegister(rc)
		if err != nil {
			klog.ErrorS(err, "Dropped register", "device", slave.DeviceName, "tag", rc.Tag)
			continue
		}
		registers = append(registers, register)
	}
	if len(registers) == 0 {
		return nil, nil
	}

	device := &runtime.Device{
		Name:         slave.DeviceName,
		DeviceType:   slave.DeviceType,
		UnitID:       slave.UnitID,
		Port:         slave.Port,
		BaudRate:     orDefault(slave.BaudRate, defaultBaudRate),
		StopBits:     orDefault(slave.StopBits, defaultStopBits),
		DataBits:     orDefault(slave.ByteSize, defaultByteSize),
		Timeout:      time.Duration(orDefault(slave.TimeoutMs, defaultTimeoutMs)) * time.Millisecond,
		PollInterval: time.Duration(orDefault(slave.PollPeriod, defaultPollPeriod)) * time.Millisecond,
		Registers:    registers,
	}
	if len(device.Name) == 0 {
		device.Name = fmt.Sprintf("Device_%d", slave.UnitID)
	}
	if len(device.DeviceType) == 0 {
		device.DeviceType = "Unknown"
	}

	parity, ok := constant.StringToParity[slave.Parity]
	if len(slave.Parity) > 0 && !ok {
		return nil, fmt.Errorf("unknown parity %q", slave.Parity)
	}
	device.Parity = parity

	byteOrder, err := parseOrder(slave.ByteOrder)
	if err != nil {
		return nil, err
	}
	device.ByteOrder = byteOrder

	wordOrder, err := parseOrder(slave.WordOrder)
	if err != nil {
		return nil, err
	}
	device.WordOrder = wordOrder

	if errs := runtime.ValidateDevice(device); len(errs) > 0 {
		return nil, errs.ToAggregate()
	}
	return device, nil
}

func parseOrder(s string) (constant.Order, error) {
	if len(s) == 0 {
		return constant.BigEndian, nil
	}
	order, ok := constant.StringToOrder[s]
	if !ok {
		return constant.BigEndian, fmt.Errorf("unknown order %q", s)
	}
	return order, nil
}

func parseRegister(rc registerConfig) (*runtime.Register, error) {
	typeTag := rc.Type
	if len(typeTag) == 0 {
		typeTag = defaultTypeTag
	}
	dataType, ok := constant.TypeTagToDataType[typeTag]
	if !ok {
		return nil, fmt.Errorf("unknown type tag %q", typeTag)
	}

	register := &runtime.Register{
		Tag:        rc.Tag,
		Address:    rc.Address,
		AccessKind: constant.AccessKind(rc.FunctionCode),
		WordCount:  constant.DataTypeWord[dataType],
		DataType:   dataType,
		Divider:    1.0,
		Multiplier: 1.0,
	}
	if rc.ObjectsCount != nil {
		register.WordCount = *rc.ObjectsCount
	}
	if rc.Divider != nil {
		register.Divider = *rc.Divider
	}
	if rc.Multiplier != nil {
		register.Multiplier = *rc.Multiplier
	}
	return register, nil
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
