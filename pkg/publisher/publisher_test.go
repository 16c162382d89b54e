package publisher

import (
	"encoding/json"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modbridge/pkg/runtime"
	"modbridge/pkg/runtime/constant"
)

type stubToken struct {
	err error
}

func (t *stubToken) Wait() bool                     { return true }
func (t *stubToken) WaitTimeout(time.Duration) bool { return true }
func (t *stubToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *stubToken) Error() error { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type stubClient struct {
	mqtt.Client

	messages   []published
	failTopic  string
	connectErr error
}

func (c *stubClient) Connect() mqtt.Token {
	return &stubToken{err: c.connectErr}
}

func (c *stubClient) Disconnect(quiesce uint) {}

func (c *stubClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.messages = append(c.messages, published{topic: topic, qos: qos, retained: retained, payload: payload.([]byte)})
	if topic == c.failTopic {
		return &stubToken{err: assert.AnError}
	}
	return &stubToken{}
}

func reading(values runtime.Values) *runtime.Reading {
	return &runtime.Reading{
		DeviceName: "Boiler Room",
		DeviceType: "boiler",
		UnitID:     1,
		Status:     constant.Connected,
		Timestamp:  time.Date(2024, 5, 17, 10, 30, 0, 123000000, time.UTC),
		Values:     values,
	}
}

func TestPublishTopicsAndPayloads(t *testing.T) {
	client := &stubClient{}
	p := NewWithClient(client, "plant")

	ok := p.Publish(reading(runtime.Values{
		{Tag: "temperature", Value: 25.5},
		{Tag: "running", Value: int64(1)},
	}))
	require.True(t, ok)
	require.Len(t, client.messages, 4)

	assert.Equal(t, "plant/Boiler_Room/status", client.messages[0].topic)
	assert.Equal(t, byte(1), client.messages[0].qos)
	assert.True(t, client.messages[0].retained)

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(client.messages[0].payload, &status))
	assert.Equal(t, "connected", status["status"])
	assert.Equal(t, "2024-05-17T10:30:00.123Z", status["timestamp"])

	assert.Equal(t, "plant/Boiler_Room/telemetry", client.messages[1].topic)
	assert.Equal(t, byte(1), client.messages[1].qos)

	var telemetry map[string]interface{}
	require.NoError(t, json.Unmarshal(client.messages[1].payload, &telemetry))
	assert.Equal(t, "Boiler Room", telemetry["device"])
	assert.Equal(t, "boiler", telemetry["device_type"])
	assert.Equal(t, float64(1), telemetry["unit_id"])
	data := telemetry["data"].(map[string]interface{})
	assert.Equal(t, 25.5, data["temperature"])

	assert.Equal(t, "plant/Boiler_Room/temperature", client.messages[2].topic)
	assert.Equal(t, byte(0), client.messages[2].qos)
	assert.Equal(t, "plant/Boiler_Room/running", client.messages[3].topic)

	var tag map[string]interface{}
	require.NoError(t, json.Unmarshal(client.messages[2].payload, &tag))
	assert.Equal(t, 25.5, tag["value"])
}

func TestPublishSingleTimestamp(t *testing.T) {
	client := &stubClient{}
	p := NewWithClient(client, "")

	require.True(t, p.Publish(reading(runtime.Values{{Tag: "a", Value: int64(1)}})))

	timestamps := map[string]bool{}
	for _, m := range client.messages {
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(m.payload, &body))
		timestamps[body["timestamp"].(string)] = true
	}
	assert.Len(t, timestamps, 1)
}

func TestPublishEmptyValuesOnlyStatus(t *testing.T) {
	client := &stubClient{}
	p := NewWithClient(client, "plant")

	r := reading(runtime.Values{})
	r.Status = constant.Error

	ok := p.Publish(r)
	assert.False(t, ok)
	require.Len(t, client.messages, 1)
	assert.Equal(t, "plant/Boiler_Room/status", client.messages[0].topic)

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(client.messages[0].payload, &status))
	assert.Equal(t, "error", status["status"])
}

func TestPublishTelemetryFailure(t *testing.T) {
	client := &stubClient{failTopic: "modbus/Boiler_Room/telemetry"}
	p := NewWithClient(client, "")

	ok := p.Publish(reading(runtime.Values{{Tag: "a", Value: int64(1)}}))
	assert.False(t, ok)
	// status and the failed telemetry attempt only, no per tag messages
	assert.Len(t, client.messages, 2)
}

func TestPublishDefaultBaseTopic(t *testing.T) {
	client := &stubClient{}
	p := NewWithClient(client, "")

	require.True(t, p.Publish(reading(runtime.Values{{Tag: "a", Value: int64(1)}})))
	assert.Equal(t, "modbus/Boiler_Room/status", client.messages[0].topic)
}

func TestConnectRetries(t *testing.T) {
	client := &stubClient{connectErr: assert.AnError}
	p := NewWithClient(client, "")

	err := p.Connect(RetryPolicy{Attempts: 3, Delay: 0})
	assert.ErrorIs(t, err, ErrConnectBroker)

	client.connectErr = nil
	assert.NoError(t, p.Connect(RetryPolicy{Attempts: 1, Delay: 0}))
}
