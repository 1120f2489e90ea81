// Package events publishes domain events to Redis Pub/Sub for live listeners and to RabbitMQ for
// durable downstream consumers.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const channelPrefix = "events:"

// ChannelPattern matches every event channel.
const ChannelPattern = channelPrefix + "*"

func Channel(name string) string {
	return channelPrefix + name
}

type Envelope struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

// NewEnvelope wraps payload for publishing. An Envelope payload is returned unchanged so fan-out
// delivers the same event id to every sink.
func NewEnvelope(name string, payload any) (Envelope, error) {
	if env, ok := payload.(Envelope); ok {
		return env, nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}

	return Envelope{
		ID:         uuid.New(),
		Name:       name,
		OccurredAt: time.Now().UTC(),
		Payload:    data,
	}, nil
}
