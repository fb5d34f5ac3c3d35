package device

import (
	"fmt"

	"github.com/nerrad567/domotica-core/internal/catalog"
)

// Domain errors for the device package. Each wraps a catalog error kind, so
// callers can match either the specific sentinel or the kind:
//
//	if errors.Is(err, catalog.ErrNotFound) {
//	    // device, room or action missing
//	}
var (
	// ErrDeviceNotFound is returned when a device ID does not exist.
	ErrDeviceNotFound = fmt.Errorf("device %w", catalog.ErrNotFound)

	// ErrDeviceNameTaken is returned when another device already has the name.
	ErrDeviceNameTaken = fmt.Errorf("device: %w", catalog.ErrDuplicateName)

	// ErrInvalidRoomReference is returned when a room id list contains an
	// id that does not exist.
	ErrInvalidRoomReference = fmt.Errorf("device: unknown room id: %w", catalog.ErrInvalidReference)

	// ErrActionNotFound is returned when an action ID does not exist.
	ErrActionNotFound = fmt.Errorf("action %w", catalog.ErrNotFound)

	// ErrActionExists is returned when the device already owns an action with
	// the same description.
	ErrActionExists = fmt.Errorf("action: %w", catalog.ErrDuplicateAction)

	// ErrInvalidDeviceReference is returned when an action names a device
	// that does not exist.
	ErrInvalidDeviceReference = fmt.Errorf("action: unknown device id: %w", catalog.ErrInvalidReference)
)
