package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entity types carried by change events.
const (
	EntityRoom   = "room"
	EntityDevice = "device"
	EntityAction = "action"
	EntityScene  = "scene"
)

// EventType names a committed change, formatted "<entity>.<verb>".
type EventType string

// Change event types.
const (
	RoomCreated EventType = "room.created"
	RoomUpdated EventType = "room.updated"
	RoomDeleted EventType = "room.deleted"

	DeviceCreated  EventType = "device.created"
	DeviceUpdated  EventType = "device.updated"
	DeviceDeleted  EventType = "device.deleted"
	DeviceLinked   EventType = "device.linked"
	DeviceUnlinked EventType = "device.unlinked"

	ActionCreated EventType = "action.created"
	ActionUpdated EventType = "action.updated"
	ActionDeleted EventType = "action.deleted"

	SceneCreated       EventType = "scene.created"
	SceneUpdated       EventType = "scene.updated"
	SceneDeleted       EventType = "scene.deleted"
	SceneActionAdded   EventType = "scene.action_added"
	SceneActionRemoved EventType = "scene.action_removed"
)

// Entity returns the entity half of the event type ("device" for
// "device.linked").
func (t EventType) Entity() string {
	entity, _, _ := strings.Cut(string(t), ".")
	return entity
}

// Verb returns the verb half of the event type ("linked" for
// "device.linked").
func (t EventType) Verb() string {
	_, verb, _ := strings.Cut(string(t), ".")
	return verb
}

// Event describes one committed registry change.
type Event struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	EntityType string         `json:"entity_type"`
	EntityID   int64          `json:"entity_id"`
	Details    map[string]any `json:"details,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// NewEvent stamps a change event with a fresh id and the current time.
func NewEvent(typ EventType, entityID int64, details map[string]any) Event {
	return Event{
		ID:         "evt-" + uuid.NewString(),
		Type:       typ,
		EntityType: typ.Entity(),
		EntityID:   entityID,
		Details:    details,
		OccurredAt: time.Now().UTC(),
	}
}

// Notifier receives change events after the owning transaction commits.
// Implementations must not block the caller.
type Notifier interface {
	Notify(ev Event)
}

// NopNotifier drops every event.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(Event) {}
