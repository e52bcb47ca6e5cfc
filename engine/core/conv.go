package core

import (
	"strings"
	"time"
)

// ParseAnyDuration parses a duration from common forms. Returns false when unsupported.
//
// Notes on numeric handling:
//   - int, int64: interpreted as time.Duration units directly.
//   - float64: fractional values are truncated (not rounded) to their integer part
//     before conversion. This is intentional and locked by tests.
func ParseAnyDuration(v any) (time.Duration, bool) {
	switch t := v.(type) {
	case string:
		if strings.TrimSpace(t) == "" {
			return 0, false
		}
		if d, err := ParseHumanDuration(t); err == nil {
			return d, true
		}
		return 0, false
	case int:
		return time.Duration(t), true
	case int64:
		return time.Duration(t), true
	case float64:
		return time.Duration(int64(t)), true
	default:
		return 0, false
	}
}
