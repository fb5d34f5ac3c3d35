package device

import (
	"fmt"
	"unicode/utf8"

	"github.com/nerrad567/domotica-core/internal/catalog"
)

// MaxTypeLength is the longest accepted device type.
const MaxTypeLength = 50

// ValidateName checks a device name.
func ValidateName(name string) error {
	if err := catalog.ValidateText("name", name, catalog.MaxNameLength); err != nil {
		return fmt.Errorf("device: %w", err)
	}
	return nil
}

// ValidateType checks a device type. The type is free text and may be empty.
func ValidateType(typ string) error {
	if utf8.RuneCountInString(catalog.Normalize(typ)) > MaxTypeLength {
		return fmt.Errorf("device: %w: type exceeds %d characters", catalog.ErrInvalidInput, MaxTypeLength)
	}
	return nil
}

// ValidateDescription checks an action description.
func ValidateDescription(desc string) error {
	if err := catalog.ValidateText("description", desc, catalog.MaxNameLength); err != nil {
		return fmt.Errorf("action: %w", err)
	}
	return nil
}

// validateRoomIDs rejects non-positive ids, which can never resolve.
func validateRoomIDs(ids []int64) error {
	for _, id := range ids {
		if id <= 0 {
			return ErrInvalidRoomReference
		}
	}
	return nil
}
