package runtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modbridge/pkg/runtime/constant"
)

func TestValuesMarshalPreservesOrder(t *testing.T) {
	values := Values{
		{Tag: "zulu", Value: int64(1)},
		{Tag: "alpha", Value: 2.5},
		{Tag: "mike", Value: "x"},
	}

	data, err := json.Marshal(values)
	require.NoError(t, err)
	assert.Equal(t, `{"zulu":1,"alpha":2.5,"mike":"x"}`, string(data))
}

func TestValuesGet(t *testing.T) {
	values := Values{{Tag: "a", Value: int64(1)}}

	v, ok := values.Get("a")
	assert.True(t, ok)
	assert.Equal(t, int64(1), v)

	_, ok = values.Get("missing")
	assert.False(t, ok)
}

func TestScaleIntegerTyping(t *testing.T) {
	register := &Register{DataType: constant.UINT32, Divider: 2.0, Multiplier: 1.0}
	assert.Equal(t, int64(50), register.Scale(100))

	register.Divider = 3.0
	assert.InDelta(t, 33.333, register.Scale(100).(float64), 0.001)

	floatRegister := &Register{DataType: constant.FLOAT32, Divider: 2.0, Multiplier: 1.0}
	assert.Equal(t, float64(50), floatRegister.Scale(100))
}

func TestNeedsScaling(t *testing.T) {
	register := &Register{Divider: 1.0, Multiplier: 1.0}
	assert.False(t, register.NeedsScaling())

	register.Multiplier = 2.0
	assert.True(t, register.NeedsScaling())
}

func TestValidateDevice(t *testing.T) {
	device := &Device{
		Name:         "meter",
		Port:         "/dev/ttyUSB0",
		PollInterval: 1,
		Registers: []*Register{
			{Tag: "a", AccessKind: constant.ReadHoldingRegister, WordCount: 1, DataType: constant.UINT16},
			{Tag: "a", AccessKind: constant.ReadHoldingRegister, WordCount: 1, DataType: constant.UINT16},
		},
	}
	errs := ValidateDevice(device)
	require.Len(t, errs, 1)
	assert.Contains(t, errs.ToAggregate().Error(), "Duplicate")

	device.Registers = nil
	errs = ValidateDevice(device)
	assert.NotEmpty(t, errs)
}

func TestValidateRegisterWordCount(t *testing.T) {
	register := &Register{Tag: "a", AccessKind: constant.ReadHoldingRegister, WordCount: 3, DataType: constant.FLOAT32}
	errs := ValidateRegister(register, nil)
	assert.NotEmpty(t, errs)

	register.WordCount = 2
	assert.Empty(t, ValidateRegister(register, nil))

	// bit kinds ignore the data type width
	coil := &Register{Tag: "b", AccessKind: constant.ReadCoil, WordCount: 1, DataType: constant.UINT16}
	assert.Empty(t, ValidateRegister(coil, nil))
}

func TestMatchDevice(t *testing.T) {
	device := &Device{Name: "Boiler Room", DeviceType: "boiler", Port: "/dev/ttyUSB0"}

	predicates := ParseTypeFilter(&DeviceFilter{DeviceType: "boiler"})
	assert.True(t, MatchDevice(device, predicates))

	predicates = ParseTypeFilter(&DeviceFilter{DeviceType: "pump"})
	assert.False(t, MatchDevice(device, predicates))

	predicates = ParseTypeFilter(&DeviceFilter{Name: "Boiler Room"})
	assert.True(t, MatchDevice(device, predicates))

	predicates = ParseTypeFilter(&DeviceFilter{Name: map[string]interface{}{"startsWith": "Boiler"}})
	assert.True(t, MatchDevice(device, predicates))

	predicates = ParseTypeFilter(&DeviceFilter{Name: map[string]interface{}{"contains": "Pump"}})
	assert.False(t, MatchDevice(device, predicates))
}
