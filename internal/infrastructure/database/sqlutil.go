package database

import (
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the format of the strftime defaults in the schema.
const TimestampLayout = "2006-01-02T15:04:05Z"

// ParseTime parses a stored timestamp. It accepts RFC 3339 and the schema's
// strftime layout, and returns the zero time for anything else.
func ParseTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse(TimestampLayout, s); err == nil {
		return t
	}
	return time.Time{}
}

// InClause returns an IN operand that matches any of ids. The ids travel as
// one JSON array parameter so the list is not bounded by SQLite's host
// parameter limit.
func InClause(ids []int64) (string, []any) {
	var b strings.Builder
	b.Grow(len(ids) * 8)
	b.WriteByte('[')
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(id, 10))
	}
	b.WriteByte(']')
	return "(SELECT value FROM json_each(?))", []any{b.String()}
}
