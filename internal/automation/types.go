package automation

import (
	"time"

	"github.com/nerrad567/domotica-core/internal/catalog"
	"github.com/nerrad567/domotica-core/internal/device"
)

// Status is the activation state of a scene.
type Status string

// Scene statuses.
const (
	StatusInactive Status = "inactive"
	StatusActive   Status = "active"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusInactive || s == StatusActive
}

// Scene is a named collection of device actions.
type Scene struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	ActivationKeyword *string `json:"activation_keyword,omitempty"`
	Status            Status  `json:"status"`

	// Actions linked to the scene, in the order they were added. Never nil.
	Actions []device.Action `json:"actions"`

	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// SceneCreate holds the fields for a new scene. An empty Status defaults to
// StatusInactive; an empty keyword is stored as no keyword.
type SceneCreate struct {
	Name              string  `json:"name"`
	ActivationKeyword *string `json:"activation_keyword"`
	Status            Status  `json:"status"`
}

// SceneUpdate is a partial update. Setting ActivationKeyword to "" clears
// the keyword.
type SceneUpdate struct {
	Name              catalog.Optional[string] `json:"name"`
	ActivationKeyword catalog.Optional[string] `json:"activation_keyword"`
	Status            catalog.Optional[Status] `json:"status"`
}

// IsEmpty reports whether the update sets no field.
func (u SceneUpdate) IsEmpty() bool {
	return !u.Name.Set && !u.ActivationKeyword.Set && !u.Status.Set
}
