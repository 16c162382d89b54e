package options

import (
	"time"

	"github.com/spf13/pflag"

	"modbridge/cmd/bridge/config"
	"modbridge/pkg/bridge"
	deviceconfig "modbridge/pkg/config"
	baseoptions "modbridge/pkg/generic/options"
	"modbridge/pkg/poller"
	"modbridge/pkg/publisher"
	"modbridge/pkg/utils/uuidutil"
)

type Options struct {
	Port      string        `json:"port"`
	Wait      time.Duration `json:"graceful-timeout"`
	ConfigDir string        `json:"config-dir"`

	Broker        string        `json:"broker"`
	BrokerPort    int           `json:"broker-port"`
	Username      string        `json:"username"`
	Password      string        `json:"password"`
	ClientID      string        `json:"client-id"`
	BaseTopic     string        `json:"base-topic"`
	RetryAttempts int           `json:"retry-attempts"`
	RetryDelay    time.Duration `json:"retry-delay"`

	Pacing        time.Duration `json:"pacing"`
	StartStagger  time.Duration `json:"start-stagger"`
	FaultCooldown time.Duration `json:"fault-cooldown"`
	JoinTimeout   time.Duration `json:"join-timeout"`

	baseoptions.BaseOptions
}

const (
	_defaultPort       = "32100"
	_defaultWait       = 15 * time.Second
	_defaultConfigDir  = "./config"
	_defaultBroker     = "localhost"
	_defaultBrokerPort = 1883
	_defaultBaseTopic  = "modbus"
	_defaultAttempts   = 5
	_defaultRetryDelay = 2 * time.Second
)

func NewDefaultOptions() *Options {
	pollerDefaults := poller.DefaultOptions()
	return &Options{
		Port:          _defaultPort,
		Wait:          _defaultWait,
		ConfigDir:     _defaultConfigDir,
		Broker:        _defaultBroker,
		BrokerPort:    _defaultBrokerPort,
		BaseTopic:     _defaultBaseTopic,
		RetryAttempts: _defaultAttempts,
		RetryDelay:    _defaultRetryDelay,
		Pacing:        pollerDefaults.Pacing,
		StartStagger:  pollerDefaults.StartStagger,
		FaultCooldown: pollerDefaults.FaultCooldown,
		JoinTimeout:   pollerDefaults.JoinTimeout,
		BaseOptions:   baseoptions.NewDefaultBaseOptions(),
	}
}

func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.Port, "port", "P", o.Port, "Port exposed")
	fs.DurationVar(&o.Wait, "graceful-timeout", o.Wait, "The duration for which the server gracefully wait for existing connections to finish - e.g. 15s or 1m")
	fs.StringVar(&o.ConfigDir, "config-dir", o.ConfigDir, "Directory holding the modbus connector json files")

	fs.StringVar(&o.Broker, "broker", o.Broker, "Mqtt broker host")
	fs.IntVar(&o.BrokerPort, "broker-port", o.BrokerPort, "Mqtt broker port")
	fs.StringVar(&o.Username, "username", o.Username, "Mqtt broker username")
	fs.StringVar(&o.Password, "password", o.Password, "Mqtt broker password")
	fs.StringVar(&o.ClientID, "client-id", o.ClientID, "Mqtt client id, random when empty")
	fs.StringVar(&o.BaseTopic, "base-topic", o.BaseTopic, "Root of the published topic tree")
	fs.IntVar(&o.RetryAttempts, "retry-attempts", o.RetryAttempts, "Broker connect attempts before giving up")
	fs.DurationVar(&o.RetryDelay, "retry-delay", o.RetryDelay, "Delay between broker connect attempts")

	fs.DurationVar(&o.Pacing, "pacing", o.Pacing, "Delay between successive register reads of one sweep")
	fs.DurationVar(&o.StartStagger, "start-stagger", o.StartStagger, "Delay between starting consecutive device loops")
	fs.DurationVar(&o.FaultCooldown, "fault-cooldown", o.FaultCooldown, "Delay before a device loop resumes after an unexpected fault")
	fs.DurationVar(&o.JoinTimeout, "join-timeout", o.JoinTimeout, "Bound on waiting for in flight sweeps at shutdown")
}

func (o *Options) Config() (*config.Config, error) {
	c := &config.Config{}

	devices, err := deviceconfig.LoadDir(o.ConfigDir)
	if err != nil {
		return nil, err
	}

	clientID := o.ClientID
	if len(clientID) == 0 {
		clientID = "modbridge-" + uuidutil.ShortUUID()
	}
	pub := publisher.New(publisher.Options{
		Broker:    o.Broker,
		Port:      o.BrokerPort,
		Username:  o.Username,
		Password:  o.Password,
		ClientID:  clientID,
		BaseTopic: o.BaseTopic,
	})
	if err := pub.Connect(publisher.RetryPolicy{Attempts: o.RetryAttempts, Delay: o.RetryDelay}); err != nil {
		return nil, err
	}

	c.BridgeMgr = bridge.NewManager(devices, pub, poller.Options{
		Pacing:        o.Pacing,
		StartStagger:  o.StartStagger,
		FaultCooldown: o.FaultCooldown,
		JoinTimeout:   o.JoinTimeout,
	})

	return c, nil
}
