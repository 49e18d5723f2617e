package plan

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publisher pushes detection results to an MQTT broker so external
// viewers can refresh without polling. Publishing is optional: a nil
// client disables it.
type Publisher struct {
	client mqtt.Client
	prefix string
	qos    byte
	retain bool
}

// NewPublisher creates a result publisher. The topic prefix comes from
// MQTT_PUBLISH_PREFIX or the config topic, falling back to "planvec".
func NewPublisher(client mqtt.Client, cfg MQTTConfig) *Publisher {
	prefix := os.Getenv("MQTT_PUBLISH_PREFIX")
	if prefix == "" {
		prefix = cfg.Topic
	}
	if prefix == "" {
		prefix = "planvec"
	}

	return &Publisher{
		client: client,
		prefix: prefix,
		qos:    0,
		retain: true, // retain so late subscribers get the latest result
	}
}

// PublishResult publishes a plan's detection result as GeoJSON to
// {prefix}/{plan}/sublots, plus a compact summary to
// {prefix}/{plan}/summary.
func (p *Publisher) PublishResult(planName string, polylines []Polyline, result *DetectionResult) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	fc := ResultToFeatureCollection(polylines, result)
	payload, err := json.Marshal(fc)
	if err != nil {
		return fmt.Errorf("marshaling feature collection: %w", err)
	}

	topic := fmt.Sprintf("%s/%s/sublots", p.prefix, planName)
	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}

	summary := map[string]interface{}{
		"plan":      planName,
		"sublots":   len(result.Sublots),
		"metrics":   result.Metrics,
		"timestamp": time.Now().Unix(),
	}
	sumPayload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}

	sumTopic := fmt.Sprintf("%s/%s/summary", p.prefix, planName)
	token = p.client.Publish(sumTopic, p.qos, p.retain, sumPayload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", sumTopic, token.Error())
	}

	log.Printf("Published %d sublot(s) for plan %q to %s", len(result.Sublots), planName, topic)
	return nil
}

// ConnectMQTT sets up and connects an MQTT client from the config. If
// no broker is configured (config or MQTT_BROKER env), publishing is
// disabled and this returns nil with no error.
func ConnectMQTT(cfg MQTTConfig) (mqtt.Client, error) {
	broker := os.Getenv("MQTT_BROKER")
	if broker == "" {
		broker = cfg.Broker
	}
	if broker == "" {
		log.Println("MQTT disabled: no broker configured")
		return nil, nil
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "planvec"
	}
	opts.SetClientID(clientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Printf("Connected to MQTT broker %s", broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Printf("MQTT connection lost: %v", err)
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.WaitTimeout(10*time.Second) && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker %s: %w", broker, token.Error())
	}
	return client, nil
}
