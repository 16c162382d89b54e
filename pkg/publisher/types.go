package publisher

import (
	"modbridge/pkg/runtime"
	"modbridge/pkg/runtime/constant"
)

// One status message is published per device per cycle, one telemetry
// message only when values were decoded, and one message per tag for fan out
// subscription. All three carry the reading's single capture time.

type StatusMessage struct {
	Status    constant.DeviceStatus `json:"status"`
	Timestamp string                `json:"timestamp"`
}

type TelemetryMessage struct {
	Device     string         `json:"device"`
	DeviceType string         `json:"device_type"`
	UnitID     uint8          `json:"unit_id"`
	Timestamp  string         `json:"timestamp"`
	Data       runtime.Values `json:"data"`
}

type TagMessage struct {
	Value     interface{} `json:"value"`
	Timestamp string      `json:"timestamp"`
}
