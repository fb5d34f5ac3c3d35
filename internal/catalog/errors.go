package catalog

import "errors"

// Error kinds. Entity packages wrap these in their own sentinels.
var (
	// ErrNotFound is returned when a referenced entity id does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateName is returned when a room, device or scene name is
	// already taken (case-insensitive).
	ErrDuplicateName = errors.New("duplicate name")

	// ErrDuplicateAction is returned when a device already owns an action
	// with the same description (case-insensitive).
	ErrDuplicateAction = errors.New("duplicate action")

	// ErrInvalidReference is returned when a referenced id set does not fully
	// resolve to existing entities.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrHasLinkedDevices is returned when deleting a room that still has
	// devices linked to it.
	ErrHasLinkedDevices = errors.New("has linked devices")

	// ErrInvalidInput is returned when a field fails validation.
	ErrInvalidInput = errors.New("invalid input")
)
