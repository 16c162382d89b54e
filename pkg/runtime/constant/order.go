package constant

import (
	"encoding/json"
	"fmt"
)

// Order is the byte order inside a register word and the word order of
// multi word values.
type Order int8

const (
	BigEndian Order = iota
	LittleEndian
)

var OrderToString = map[Order]string{
	BigEndian:    "BIG",
	LittleEndian: "LITTLE",
}

var StringToOrder = map[string]Order{
	"BIG":    BigEndian,
	"LITTLE": LittleEndian,
}

func (o Order) MarshalJSON() ([]byte, error) {
	if s, ok := OrderToString[o]; ok {
		return json.Marshal(s)
	}
	return nil, fmt.Errorf("unknown order %d", o)
}

func (o *Order) UnmarshalJSON(bytes []byte) error {
	var s string
	if err := json.Unmarshal(bytes, &s); err != nil {
		return err
	}

	v, ok := StringToOrder[s]
	if !ok {
		return fmt.Errorf("unknown order %s", s)
	}
	*o = v
	return nil
}
