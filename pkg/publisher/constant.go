package publisher

import (
	"errors"
	"time"
)

const (
	// timestampLayout matches the wire format consumers already parse.
	timestampLayout = "2006-01-02T15:04:05.000Z"

	mqttTimeout       = 3 * time.Second
	disconnectQuiesce = 2000 // milliseconds
	defaultBaseTopic  = "modbus"
)

var ErrConnectBroker = errors.New("failed to connect mqtt broker")
