package transport

import "errors"

var ErrConnectTransport = errors.New("failed to open serial transport")
