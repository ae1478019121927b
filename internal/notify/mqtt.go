package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

// DefaultTopic is where countdown events are published for signage screens.
const DefaultTopic = "nunggu-bedug/notifications"

// MQTT publishes notifications as JSON to a broker topic.
type MQTT struct {
	client mqtt.Client
	topic  string
	qos    byte
}

// NewMQTT connects to broker (e.g. "tcp://localhost:1883").
func NewMQTT(broker, clientID, topic string) (*MQTT, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(5 * time.Second)
	opts.OnConnect = func(mqtt.Client) {
		log.Debug().Str("broker", broker).Msg("connected to MQTT broker")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Str("broker", broker).Msg("MQTT connection lost")
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("timed out connecting to MQTT broker %s", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", broker, err)
	}
	return NewMQTTWithClient(client, topic), nil
}

// NewMQTTWithClient wraps an existing client.
func NewMQTTWithClient(client mqtt.Client, topic string) *MQTT {
	if topic == "" {
		topic = DefaultTopic
	}
	return &MQTT{client: client, topic: topic, qos: 1}
}

func (m *MQTT) Authorized() bool {
	return m.client.IsConnectionOpen()
}

func (m *MQTT) Notify(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	token := m.client.Publish(m.topic, m.qos, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", m.topic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (m *MQTT) Close() {
	m.client.Disconnect(250)
}
