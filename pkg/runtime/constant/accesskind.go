package constant

import (
	"encoding/json"
	"fmt"
)

// AccessKind is the modbus read function code of a register.
type AccessKind uint8

const (
	ReadCoil            AccessKind = 1
	ReadDiscreteInput   AccessKind = 2
	ReadHoldingRegister AccessKind = 3
	ReadInputRegister   AccessKind = 4
)

var AccessKindToString = map[AccessKind]string{
	ReadCoil:            "coil",
	ReadDiscreteInput:   "discreteInput",
	ReadHoldingRegister: "holdingRegister",
	ReadInputRegister:   "inputRegister",
}

// IsBit reports whether the access kind reads single bits instead of 16 bit words.
func (ak AccessKind) IsBit() bool {
	return ak == ReadCoil || ak == ReadDiscreteInput
}

func (ak AccessKind) String() string {
	if s, ok := AccessKindToString[ak]; ok {
		return s
	}
	return fmt.Sprintf("functionCode(%d)", uint8(ak))
}

func (ak AccessKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(uint8(ak))
}

func (ak *AccessKind) UnmarshalJSON(bytes []byte) error {
	var c uint8
	if err := json.Unmarshal(bytes, &c); err != nil {
		return err
	}
	if _, ok := AccessKindToString[AccessKind(c)]; !ok {
		return fmt.Errorf("unknown function code %d", c)
	}
	*ak = AccessKind(c)
	return nil
}
