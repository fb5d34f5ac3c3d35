package location

import (
	"fmt"

	"github.com/nerrad567/domotica-core/internal/catalog"
)

// ValidateName checks a room name: non-empty after trimming and at most
// catalog.MaxNameLength characters. Failures wrap catalog.ErrInvalidInput.
func ValidateName(name string) error {
	if err := catalog.ValidateText("name", name, catalog.MaxNameLength); err != nil {
		return fmt.Errorf("room: %w", err)
	}
	return nil
}
