package runtime

import (
	"bytes"
	"encoding/json"
	"time"

	"modbridge/pkg/runtime/constant"
)

// Register is one addressable quantity on a device. Constructed once from
// configuration, immutable afterwards.
type Register struct {
	Tag        string              `json:"tag"`
	Address    uint16              `json:"address"`
	AccessKind constant.AccessKind `json:"functionCode"`
	WordCount  uint16              `json:"wordCount"`
	DataType   constant.DataType   `json:"dataType"`
	Divider    float64             `json:"divider"`
	Multiplier float64             `json:"multiplier"`
}

func (r *Register) NeedsScaling() bool {
	return r.Divider != 1.0 || r.Multiplier != 1.0
}

// Scale applies multiplier and divider to a decoded value. Integer typed
// registers keep an integer representation when the scaled result is whole,
// so counters stay distinguishable from measurements downstream.
func (r *Register) Scale(value float64) interface{} {
	result := (value * r.Multiplier) / r.Divider
	if r.DataType.IsInteger() && result == float64(int64(result)) {
		return int64(result)
	}
	return result
}

// Device is one physical unit reachable over one serial transport. Immutable
// after load, shared read only by exactly one poll cycle.
type Device struct {
	Name         string              `json:"name"`
	DeviceType   string              `json:"deviceType"`
	UnitID       uint8               `json:"unitId"`
	Port         string              `json:"port"`
	BaudRate     int                 `json:"baudRate"`
	Parity       constant.Parity     `json:"parity"`
	StopBits     int                 `json:"stopBits"`
	DataBits     int                 `json:"dataBits"`
	Timeout      time.Duration       `json:"timeout"`
	PollInterval time.Duration       `json:"pollInterval"`
	ByteOrder    constant.Order      `json:"byteOrder"`
	WordOrder    constant.Order      `json:"wordOrder"`
	Registers    []*Register         `json:"registers"`
}

// TagValue is one decoded register value of a reading.
type TagValue struct {
	Tag   string
	Value interface{}
}

// Values keeps decoded values in register declaration order. It marshals to a
// JSON object preserving that order, which a plain map would not.
type Values []TagValue

func (vs Values) Get(tag string) (interface{}, bool) {
	for i := range vs {
		if vs[i].Tag == tag {
			return vs[i].Value, true
		}
	}
	return nil, false
}

func (vs Values) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, tv := range vs {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(tv.Tag)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(tv.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Reading is the output of one poll sweep for one device. Created fresh each
// cycle, immutable once built, consumed once by the publish sink.
type Reading struct {
	DeviceName string                `json:"device"`
	DeviceType string                `json:"deviceType"`
	UnitID     uint8                 `json:"unitId"`
	Status     constant.DeviceStatus `json:"status"`
	Timestamp  time.Time             `json:"timestamp"`
	Values     Values                `json:"values"`
}
