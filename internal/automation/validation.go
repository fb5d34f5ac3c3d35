package automation

import (
	"fmt"
	"unicode/utf8"

	"github.com/nerrad567/domotica-core/internal/catalog"
)

// MaxKeywordLength is the longest accepted activation keyword.
const MaxKeywordLength = 100

// ValidateName checks a scene name.
func ValidateName(name string) error {
	if err := catalog.ValidateText("name", name, catalog.MaxNameLength); err != nil {
		return fmt.Errorf("scene: %w", err)
	}
	return nil
}

// ValidateKeyword checks an activation keyword. An empty keyword is allowed
// and means the scene has none.
func ValidateKeyword(keyword string) error {
	if utf8.RuneCountInString(catalog.Normalize(keyword)) > MaxKeywordLength {
		return fmt.Errorf("scene: %w: activation_keyword exceeds %d characters",
			catalog.ErrInvalidInput, MaxKeywordLength)
	}
	return nil
}

// ValidateStatus checks a scene status.
func ValidateStatus(s Status) error {
	if !s.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// normalizeKeyword trims a keyword and maps the empty string to nil.
func normalizeKeyword(keyword *string) *string {
	if keyword == nil {
		return nil
	}
	k := catalog.Normalize(*keyword)
	if k == "" {
		return nil
	}
	return &k
}
