package bridge

import (
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"modbridge/pkg/runtime"
)

// Meta identifies this bridge instance.
type Meta struct {
	ID        string    `json:"id"`
	StartTime time.Time `json:"startTime"`
}

type ResponseModel struct {
	Cpus  interface{} `json:"cpus,omitempty"`
	Mem   interface{} `json:"mem,omitempty"`
	Disks interface{} `json:"disk,omitempty"`
}

type MemUsageInfo struct {
	Total       string
	Used        string
	UsedPercent string
}

type DiskUsageInfo struct {
	Total       string
	Used        string
	UsedPercent string
}

// DeviceSummary is the list view of a configured device.
type DeviceSummary struct {
	Name         string    `json:"name"`
	DeviceType   string    `json:"deviceType"`
	UnitID       uint8     `json:"unitId"`
	Port         string    `json:"port"`
	PollInterval string    `json:"pollInterval"`
	Registers    int       `json:"registers"`
	Status       string    `json:"status,omitempty"`
	LastPoll     time.Time `json:"lastPoll,omitempty"`
}

// DeviceDetail is the single device view including the latest reading.
type DeviceDetail struct {
	Device      *runtime.Device  `json:"device"`
	LastReading *runtime.Reading `json:"lastReading,omitempty"`
}

func (m *Manager) GetMeta() (*Meta, error) {
	return m.meta, nil
}

func (m *Manager) getBridgeCpu() ([]string, error) {
	percents, err := cpu.Percent(time.Second, true)
	if err != nil {
		return nil, err
	}
	cpus := make([]string, 0, len(percents))
	for _, percent := range percents {
		cpus = append(cpus, fmt.Sprintf("%.2f%%", percent))
	}
	return cpus, nil
}

func (m *Manager) getBridgeMem() (*MemUsageInfo, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return nil, err
	}
	return &MemUsageInfo{
		Total:       humanBytes(vm.Total),
		Used:        humanBytes(vm.Used),
		UsedPercent: fmt.Sprintf("%.2f%%", vm.UsedPercent),
	}, nil
}

func (m *Manager) getBridgeDisk() (*DiskUsageInfo, error) {
	usage, err := disk.Usage("/")
	if err != nil {
		return nil, err
	}
	return &DiskUsageInfo{
		Total:       humanBytes(usage.Total),
		Used:        humanBytes(usage.Used),
		UsedPercent: fmt.Sprintf("%.2f%%", usage.UsedPercent),
	}, nil
}

func humanBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%cB", float64(n)/float64(div), "KMGTPE"[exp])
}
