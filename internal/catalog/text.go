package catalog

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// MaxNameLength is the longest accepted room, device or scene name, and the
// longest action description.
const MaxNameLength = 100

// Normalize trims surrounding whitespace and puts s into Unicode NFC form.
// Stored names and descriptions are always normalized.
func Normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Fold returns the comparison key for s: normalized, then Unicode
// case-folded. Two names are considered equal when their keys are equal.
func Fold(s string) string {
	// A Caser is stateful, so each call gets its own.
	return cases.Fold().String(Normalize(s))
}

// ContainsPattern builds a LIKE pattern matching any key that contains the
// folded filter. Use it with ESCAPE '\'.
func ContainsPattern(filter string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(Fold(filter)) + "%"
}

// ValidateText checks that a normalized name or description is non-empty
// and not longer than limit characters. field names the value in the error.
func ValidateText(field, value string, limit int) error {
	value = Normalize(value)
	if value == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrInvalidInput, field)
	}
	if utf8.RuneCountInString(value) > limit {
		return fmt.Errorf("%w: %s exceeds %d characters", ErrInvalidInput, field, limit)
	}
	return nil
}
