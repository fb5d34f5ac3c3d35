package location

import (
	"fmt"

	"github.com/nerrad567/domotica-core/internal/catalog"
)

var (
	// ErrRoomNotFound is returned when a room ID does not exist.
	ErrRoomNotFound = fmt.Errorf("room %w", catalog.ErrNotFound)

	// ErrRoomNameTaken is returned when another room already has the name.
	ErrRoomNameTaken = fmt.Errorf("room: %w", catalog.ErrDuplicateName)

	// ErrRoomHasDevices is returned when deleting a room with linked devices.
	ErrRoomHasDevices = fmt.Errorf("room %w: unlink them first", catalog.ErrHasLinkedDevices)
)
