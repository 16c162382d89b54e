// Package publisher emits readings as mqtt messages on topics keyed by
// device and tag.
package publisher

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"k8s.io/klog/v2"

	"modbridge/pkg/runtime"
)

// RetryPolicy is an explicit connect retry configuration instead of control
// flow baked into the dial loop.
type RetryPolicy struct {
	Attempts int           `json:"attempts"`
	Delay    time.Duration `json:"delay"`
}

type Options struct {
	Broker    string
	Port      int
	Username  string
	Password  string
	ClientID  string
	BaseTopic string
}

// Publisher is safe to call from multiple polling goroutines. Publishes are
// bounded by mqttTimeout so a slow broker cannot stall a device loop.
type Publisher struct {
	client    mqtt.Client
	baseTopic string
}

func New(opts Options) *Publisher {
	co := mqtt.NewClientOptions()
	co.AddBroker(fmt.Sprintf("tcp://%s:%d", opts.Broker, opts.Port))
	co.SetClientID(opts.ClientID)
	if len(opts.Username) > 0 {
		co.SetUsername(opts.Username)
		co.SetPassword(opts.Password)
	}
	co.SetAutoReconnect(true)
	co.SetOnConnectHandler(func(mqtt.Client) {
		klog.V(1).InfoS("Connected mqtt broker", "broker", opts.Broker, "port", opts.Port)
	})
	co.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		klog.V(1).InfoS("Lost mqtt broker connection", "err", err)
	})

	baseTopic := opts.BaseTopic
	if len(baseTopic) == 0 {
		baseTopic = defaultBaseTopic
	}

	return &Publisher{
		client:    mqtt.NewClient(co),
		baseTopic: baseTopic,
	}
}

// NewWithClient is for tests and embedding with a preconfigured client.
func NewWithClient(client mqtt.Client, baseTopic string) *Publisher {
	if len(baseTopic) == 0 {
		baseTopic = defaultBaseTopic
	}
	return &Publisher{client: client, baseTopic: baseTopic}
}

// Connect dials the broker honoring the retry policy. Consumed once at
// startup, outside the polling hot path.
func (p *Publisher) Connect(policy RetryPolicy) error {
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 1; attempt <= attempts; attempt++ {
		klog.V(1).InfoS("Connecting mqtt broker", "attempt", attempt, "attempts", attempts)
		token := p.client.Connect()
		if token.WaitTimeout(mqttTimeout) && token.Error() == nil {
			return nil
		}
		klog.V(2).InfoS("Failed to connect mqtt broker", "err", token.Error())
		if attempt < attempts {
			time.Sleep(policy.Delay)
		}
	}
	return ErrConnectBroker
}

func (p *Publisher) Disconnect() {
	p.client.Disconnect(disconnectQuiesce)
}

// Publish emits the reading's status, telemetry and per tag messages. The
// reading is dropped on failure; the next cycle proceeds regardless.
func (p *Publisher) Publish(reading *runtime.Reading) bool {
	name := strings.ReplaceAll(reading.DeviceName, " ", "_")
	timestamp := reading.Timestamp.UTC().Format(timestampLayout)

	statusPayload, _ := json.Marshal(StatusMessage{Status: reading.Status, Timestamp: timestamp})
	p.publish(fmt.Sprintf("%s/%s/status", p.baseTopic, name), 1, statusPayload)

	if len(reading.Values) == 0 {
		return false
	}

	telemetryPayload, err := json.Marshal(TelemetryMessage{
		Device:     reading.DeviceName,
		DeviceType: reading.DeviceType,
		UnitID:     reading.UnitID,
		Timestamp:  timestamp,
		Data:       reading.Values,
	})
	if err != nil {
		klog.V(2).InfoS("Failed to marshal telemetry", "device", reading.DeviceName, "err", err)
		return false
	}
	if !p.publish(fmt.Sprintf("%s/%s/telemetry", p.baseTopic, name), 1, telemetryPayload) {
		return false
	}

	for _, tv := range reading.Values {
		payload, _ := json.Marshal(TagMessage{Value: tv.Value, Timestamp: timestamp})
		p.publish(fmt.Sprintf("%s/%s/%s", p.baseTopic, name, tv.Tag), 0, payload)
	}
	return true
}

func (p *Publisher) publish(topic string, qos byte, payload []byte) bool {
	token := p.client.Publish(topic, qos, true, payload)
	if token.WaitTimeout(mqttTimeout) && token.Error() == nil {
		klog.V(5).InfoS("Succeed to publish mqtt", "topic", topic)
		return true
	}
	klog.V(1).InfoS("Failed to publish mqtt", "topic", topic, "err", token.Error())
	return false
}
