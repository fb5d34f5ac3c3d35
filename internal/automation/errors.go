package automation

import (
	"fmt"

	"github.com/nerrad567/domotica-core/internal/catalog"
)

// Domain errors for the automation package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, automation.ErrSceneNotFound) {
//	    // handle not found case
//	}
var (
	// ErrSceneNotFound is returned when a scene ID does not exist.
	ErrSceneNotFound = fmt.Errorf("scene %w", catalog.ErrNotFound)

	// ErrSceneNameTaken is returned when another scene already has the name.
	ErrSceneNameTaken = fmt.Errorf("scene: %w", catalog.ErrDuplicateName)

	// ErrInvalidStatus is returned for a status other than inactive or active.
	ErrInvalidStatus = fmt.Errorf("scene: %w: status must be %q or %q",
		catalog.ErrInvalidInput, StatusInactive, StatusActive)
)
