package device

import (
	"time"

	"github.com/nerrad567/domotica-core/internal/catalog"
	"github.com/nerrad567/domotica-core/internal/location"
)

// Device is a controllable item in the catalog.
//
// Rooms is never nil. When a listing is requested without rooms, Rooms is
// empty even though the stored links are unchanged.
type Device struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	State     bool            `json:"state"`
	Rooms     []location.Room `json:"rooms"`
	CreatedAt time.Time       `json:"created_at,omitzero"`
	UpdatedAt time.Time       `json:"updated_at,omitzero"`
}

// RoomIDs returns the ids of the device's rooms in order.
func (d *Device) RoomIDs() []int64 {
	ids := make([]int64, len(d.Rooms))
	for i, r := range d.Rooms {
		ids[i] = r.ID
	}
	return ids
}

// DeviceCreate holds the fields for a new device.
type DeviceCreate struct {
	Name    string  `json:"name"`
	Type    string  `json:"type"`
	State   bool    `json:"state"`
	RoomIDs []int64 `json:"room_ids"`
}

// DeviceUpdate is a partial update. RoomIDs, when set, replaces the whole
// room set; an empty list unlinks every room.
type DeviceUpdate struct {
	Name    catalog.Optional[string]  `json:"name"`
	Type    catalog.Optional[string]  `json:"type"`
	State   catalog.Optional[bool]    `json:"state"`
	RoomIDs catalog.Optional[[]int64] `json:"room_ids"`
}

// IsEmpty reports whether the update sets no field.
func (u DeviceUpdate) IsEmpty() bool {
	return !u.Name.Set && !u.Type.Set && !u.State.Set && !u.RoomIDs.Set
}

// Action is an operation that can be performed on one device.
type Action struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	DeviceID    int64     `json:"device_id"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`
}

// ActionUpdate is a partial update. Changing DeviceID moves the action to
// another device and keeps its scene memberships.
type ActionUpdate struct {
	Description catalog.Optional[string] `json:"description"`
	DeviceID    catalog.Optional[int64]  `json:"device_id"`
}
