package location

import (
	"time"

	"github.com/nerrad567/domotica-core/internal/catalog"
)

// Room is a physical space devices can be linked to.
type Room struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// RoomUpdate is a partial update; only set fields are applied.
type RoomUpdate struct {
	Name catalog.Optional[string] `json:"name"`
}

// LinkedDevice is the summary of a device shown in a room's device listing.
type LinkedDevice struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	State bool   `json:"state"`
}

// RoomDevices is a room together with the devices linked to it.
type RoomDevices struct {
	Room    Room           `json:"room"`
	Devices []LinkedDevice `json:"devices"`
	Count   int            `json:"count"`
}
