package constant

import (
	"encoding/json"
	"fmt"
)

type Parity int8

const (
	// NoParity disable parity control (default)
	NoParity Parity = iota
	// EvenParity enable even-parity check
	EvenParity
	// OddParity enable odd-parity check
	OddParity
)

var ParityToString = map[Parity]string{
	NoParity:   "N",
	EvenParity: "E",
	OddParity:  "O",
}

var StringToParity = map[string]Parity{
	"N":    NoParity,
	"E":    EvenParity,
	"O":    OddParity,
	"none": NoParity,
	"even": EvenParity,
	"odd":  OddParity,
}

func (p Parity) String() string {
	return ParityToString[p]
}

func (p Parity) MarshalJSON() ([]byte, error) {
	if s, ok := ParityToString[p]; ok {
		return json.Marshal(s)
	}
	return nil, fmt.Errorf("unknown parity %d", p)
}

func (p *Parity) UnmarshalJSON(bytes []byte) error {
	var s string
	if err := json.Unmarshal(bytes, &s); err != nil {
		return err
	}

	v, ok := StringToParity[s]
	if !ok {
		return fmt.Errorf("unknown parity %s", s)
	}
	*p = v
	return nil
}
