package config

// connectorFile is the thingsboard gateway style connector layout the bridge
// consumes. Register definitions live under attributes and timeseries; both
// decode the same way.
type connectorFile struct {
	Name   string `json:"name"`
	Master struct {
		Slaves []slaveConfig `json:"slaves"`
	} `json:"master"`
}

type slaveConfig struct {
	DeviceName string           `json:"deviceName"`
	DeviceType string           `json:"deviceType"`
	UnitID     uint8            `json:"unitId"`
	Port       string           `json:"port"`
	BaudRate   int              `json:"baudrate"`
	Parity     string           `json:"parity"`
	StopBits   int              `json:"stopbits"`
	ByteSize   int              `json:"bytesize"`
	TimeoutMs  int              `json:"timeout"`
	PollPeriod int              `json:"pollPeriod"`
	ByteOrder  string           `json:"byteOrder"`
	WordOrder  string           `json:"wordOrder"`
	Attributes []registerConfig `json:"attributes"`
	Timeseries []registerConfig `json:"timeseries"`
}

type registerConfig struct {
	Tag          string   `json:"tag"`
	Address      uint16   `json:"address"`
	FunctionCode uint8    `json:"functionCode"`
	Type         string   `json:"type"`
	Divider      *float64 `json:"divider"`
	Multiplier   *float64 `json:"multiplier"`
	ObjectsCount *uint16  `json:"objectsCount"`
}
