package events

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"reolink-sync/storage"
)

// topicPrefix is the root of the MQTT topic tree for recording events.
const topicPrefix = "reolink/recordings"

// RecordingUpdated is the payload published once per updated camera after a
// successful refresh cycle.
type RecordingUpdated struct {
	ID        string `json:"id"`
	Camera    string `json:"camera"`
	EventType string `json:"event_type"`
}

// Publisher emits recording-updated events to an MQTT broker.
type Publisher struct {
	client mqtt.Client
}

// NewPublisher connects to the broker and returns a publisher. The broker is
// optional infrastructure; callers should treat a connection failure as a
// degraded mode, not a startup failure.
func NewPublisher(brokerURL, clientID string) (*Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetConnectTimeout(10 * time.Second).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10*time.Second) || token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %v", brokerURL, token.Error())
	}

	log.Printf("Connected to MQTT broker %s as %s", brokerURL, clientID)
	return &Publisher{client: client}, nil
}

// PublishRecordingUpdated publishes one event under the camera's normalized
// topic.
func (p *Publisher) PublishRecordingUpdated(event RecordingUpdated) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %v", err)
	}

	topic := topicPrefix + "/" + storage.Slug(event.Camera)
	token := p.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(5*time.Second) || token.Error() != nil {
		return fmt.Errorf("failed to publish to %s: %v", topic, token.Error())
	}
	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
