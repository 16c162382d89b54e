package constant

// DeviceStatus is the outcome of one poll sweep.
type DeviceStatus int8

const (
	// Connected at least one register decoded
	Connected DeviceStatus = iota
	// Error transport available but zero registers decoded
	Error
	// Disconnected transport unavailable
	Disconnected
)

var DeviceStatusToString = map[DeviceStatus]string{
	Connected:    "connected",
	Error:        "error",
	Disconnected: "disconnected",
}

func (ds DeviceStatus) String() string {
	return DeviceStatusToString[ds]
}

func (ds DeviceStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + DeviceStatusToString[ds] + `"`), nil
}
