package config

import (
	"modbridge/pkg/bridge"
)

type Config struct {
	BridgeMgr *bridge.Manager
	CertFile  string
	KeyFile   string
}
