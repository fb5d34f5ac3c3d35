package influxdb

import (
	"context"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/domotica-core/internal/catalog"
)

// MeasurementCatalogEvents is the measurement every change is recorded in.
const MeasurementCatalogEvents = "catalog_events"

// EventPoint converts a change event into a point tagged by entity type and
// verb, stamped with the event time. Link operations also carry whether the
// call changed anything.
func EventPoint(ev catalog.Event) *write.Point {
	fields := map[string]interface{}{
		"entity_id": ev.EntityID,
		"count":     int64(1),
	}
	if changed, ok := ev.Details["changed"].(bool); ok {
		fields["changed"] = changed
	}

	return write.NewPoint(
		MeasurementCatalogEvents,
		map[string]string{
			"entity_type": ev.EntityType,
			"event":       ev.Type.Verb(),
		},
		fields,
		ev.OccurredAt,
	)
}

// WritePoint queues p on the batching write API.
func (c *Client) WritePoint(p *write.Point) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	c.writeAPI.WritePoint(p)
	return nil
}

// PointWriter is implemented by *Client.
type PointWriter interface {
	WritePoint(p *write.Point) error
}

// EventSink records committed changes as catalog_events points.
type EventSink struct {
	w PointWriter
}

// NewEventSink creates a sink writing through w.
func NewEventSink(w PointWriter) *EventSink {
	return &EventSink{w: w}
}

// Name identifies the sink in dispatcher logs.
func (s *EventSink) Name() string { return "influxdb" }

// Handle queues a point for ev. Delivery errors are reported through the
// client's error callback, not here.
func (s *EventSink) Handle(ctx context.Context, ev catalog.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.w.WritePoint(EventPoint(ev))
}
