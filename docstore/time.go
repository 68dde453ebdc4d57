package docstore

import (
	"time"
)

// DateLayout is the canonical date-only textual form used for display.
const DateLayout = "2006-01-02"

// NormalizeTime converts a value read back from the store into a single
// instant representation. The store may hand back a native timestamp or a
// string, depending on how the field was written.
func NormalizeTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t != nil {
			return *t, true
		}
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, DateLayout} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

// DateOnly renders a stored date field in canonical date-only form. Strings
// that do not parse are passed through unchanged so the UI still has
// something to show.
func DateOnly(v interface{}) string {
	if t, ok := NormalizeTime(v); ok {
		return t.Format(DateLayout)
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
