package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublisher_PrefixResolution(t *testing.T) {
	t.Setenv("MQTT_PUBLISH_PREFIX", "")

	p := NewPublisher(nil, MQTTConfig{Topic: "plans/out"})
	assert.Equal(t, "plans/out", p.prefix)

	p = NewPublisher(nil, MQTTConfig{})
	assert.Equal(t, "planvec", p.prefix)

	t.Setenv("MQTT_PUBLISH_PREFIX", "env/wins")
	p = NewPublisher(nil, MQTTConfig{Topic: "plans/out"})
	assert.Equal(t, "env/wins", p.prefix)
}

func TestPublishResult_RequiresConnection(t *testing.T) {
	t.Setenv("MQTT_PUBLISH_PREFIX", "")
	p := NewPublisher(nil, MQTTConfig{})

	err := p.PublishResult("parcela-norte", borderSquare(100), &DetectionResult{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")
}

func TestConnectMQTT_DisabledWithoutBroker(t *testing.T) {
	t.Setenv("MQTT_BROKER", "")

	client, err := ConnectMQTT(MQTTConfig{})
	assert.NoError(t, err)
	assert.Nil(t, client, "no broker configured means MQTT stays off")
}
