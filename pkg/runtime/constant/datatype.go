package constant

import (
	"encoding/json"
	"fmt"
)

type DataType int8

const (
	UINT16 DataType = iota
	INT16
	UINT32
	INT32
	FLOAT32
	UINT64
	INT64
	FLOAT64
)

var DataTypeToString = map[DataType]string{
	UINT16:  "uint16",
	INT16:   "int16",
	UINT32:  "uint32",
	INT32:   "int32",
	FLOAT32: "float32",
	UINT64:  "uint64",
	INT64:   "int64",
	FLOAT64: "float64",
}

var StringToDataType = map[string]DataType{
	"uint16":  UINT16,
	"int16":   INT16,
	"uint32":  UINT32,
	"int32":   INT32,
	"float32": FLOAT32,
	"uint64":  UINT64,
	"int64":   INT64,
	"float64": FLOAT64,
}

// DataTypeWord maps a data type to the number of 16 bit registers composing it.
var DataTypeWord = map[DataType]uint16{
	UINT16:  1,
	INT16:   1,
	UINT32:  2,
	INT32:   2,
	FLOAT32: 2,
	UINT64:  4,
	INT64:   4,
	FLOAT64: 4,
}

// TypeTagToDataType maps the configuration type tags to data types.
var TypeTagToDataType = map[string]DataType{
	"16uint":  UINT16,
	"16int":   INT16,
	"32uint":  UINT32,
	"32int":   INT32,
	"32float": FLOAT32,
	"float":   FLOAT32,
	"double":  FLOAT64,
	"64uint":  UINT64,
	"64int":   INT64,
}

func (dt DataType) IsInteger() bool {
	switch dt {
	case UINT16, INT16, UINT32, INT32, UINT64, INT64:
		return true
	}
	return false
}

func (dt DataType) MarshalJSON() ([]byte, error) {
	if s, ok := DataTypeToString[dt]; ok {
		return json.Marshal(s)
	}
	return nil, fmt.Errorf("unknown data type %d", dt)
}

func (dt *DataType) UnmarshalJSON(bytes []byte) error {
	var s string
	if err := json.Unmarshal(bytes, &s); err != nil {
		return err
	}

	v, ok := StringToDataType[s]
	if !ok {
		return fmt.Errorf("unknown data type %s", s)
	}
	*dt = v
	return nil
}
