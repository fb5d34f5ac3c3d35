package mqtt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nerrad567/domotica-core/internal/catalog"
)

// Publisher is implemented by *Client.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// EventSink publishes committed catalog changes as JSON on
// {prefix}/catalog/{entity}/{verb}. Events are not retained.
type EventSink struct {
	pub    Publisher
	topics Topics
	qos    byte
}

// NewEventSink creates a sink publishing through pub.
func NewEventSink(pub Publisher, topics Topics, qos byte) *EventSink {
	return &EventSink{pub: pub, topics: topics, qos: qos}
}

// NewClientSink creates a sink publishing through c with its configured
// prefix and QoS.
func NewClientSink(c *Client) *EventSink {
	return NewEventSink(c, c.Topics(), c.QoS())
}

// Name identifies the sink in dispatcher logs.
func (s *EventSink) Name() string { return "mqtt" }

// Handle publishes ev.
func (s *EventSink) Handle(ctx context.Context, ev catalog.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding event %s: %w", ev.ID, err)
	}
	topic := s.topics.CatalogEvent(ev.EntityType, ev.Type.Verb())
	if err := s.pub.Publish(topic, payload, s.qos, false); err != nil {
		return fmt.Errorf("publishing %s: %w", ev.Type, err)
	}
	return nil
}
