// Package decoder turns raw 16 bit register words into typed, scaled values.
// Decoding is a pure function of its inputs.
package decoder

import (
	"math"

	"modbridge/pkg/runtime"
	"modbridge/pkg/runtime/constant"
	"modbridge/pkg/utils/binutil"
)

// Decode assembles the raw words of one register read and reinterprets them
// as the register's data type, honoring the device word order, then applies
// the register scaling.
//
// Coils and discrete inputs bypass word assembly entirely: the result bit is
// returned as 0.0 or 1.0 and never scaled.
func Decode(words []uint16, register *runtime.Register, device *runtime.Device) (interface{}, error) {
	if register.AccessKind.IsBit() {
		if len(words) < 1 {
			return nil, ErrIncompleteData
		}
		return float64(words[0] & 1), nil
	}

	switch register.AccessKind {
	case constant.ReadHoldingRegister, constant.ReadInputRegister:
	default:
		return nil, ErrUnsupportedAccessKind
	}

	if len(words) < int(register.WordCount) {
		return nil, ErrIncompleteData
	}

	var raw uint64
	switch register.WordCount {
	case 1:
		raw = uint64(words[0])
	case 2:
		raw = binutil.AssembleUint32(words[:2], device.WordOrder == constant.LittleEndian)
	case 4:
		raw = binutil.AssembleUint64(words[:4], device.WordOrder == constant.LittleEndian)
	default:
		return nil, ErrUnsupportedWordCount
	}

	// The byte order is applied symmetrically when packing and unpacking the
	// assembled integer, so the reinterpretation is an in-place cast of the
	// bit pattern. Unsigned types pass through unchanged.
	value := reinterpret(raw, register.DataType)

	if !register.NeedsScaling() {
		return value, nil
	}
	return register.Scale(toFloat64(value)), nil
}

func reinterpret(raw uint64, dataType constant.DataType) interface{} {
	switch dataType {
	case constant.UINT16:
		return uint16(raw)
	case constant.INT16:
		return int16(uint16(raw))
	case constant.UINT32:
		return uint32(raw)
	case constant.INT32:
		return int32(uint32(raw))
	case constant.FLOAT32:
		return math.Float32frombits(uint32(raw))
	case constant.UINT64:
		return raw
	case constant.INT64:
		return int64(raw)
	case constant.FLOAT64:
		return math.Float64frombits(raw)
	}
	return raw
}

func toFloat64(value interface{}) float64 {
	switch v := value.(type) {
	case uint16:
		return float64(v)
	case int16:
		return float64(v)
	case uint32:
		return float64(v)
	case int32:
		return float64(v)
	case float32:
		return float64(v)
	case uint64:
		return float64(v)
	case int64:
		return float64(v)
	case float64:
		return v
	}
	return 0
}
