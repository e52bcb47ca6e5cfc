package config

import (
	"fmt"
	"time"

	"github.com/rulez-engine/rulez/engine/core"
)

// Duration accepts either a plain integer (seconds) or a flexible duration
// string ("10s", "1 minute") in YAML, normalizing to a time.Duration.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler, accepting both numeric seconds
// and human duration strings.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var raw any
	if err := unmarshal(&raw); err != nil {
		return err
	}
	if raw == nil {
		*d = 0
		return nil
	}
	if dur, ok := core.ParseAnyDuration(raw); ok {
		// ParseAnyDuration treats bare ints as nanoseconds; metadata.timeout
		// is documented in whole seconds, so scale plain numeric input.
		switch raw.(type) {
		case int, int64, float64:
			*d = Duration(dur * time.Second)
		default:
			*d = Duration(dur)
		}
		return nil
	}
	return fmt.Errorf("timeout: unsupported value %v", raw)
}

// Duration returns the underlying time.Duration, or fallback if zero.
func (d Duration) Duration(fallback time.Duration) time.Duration {
	if d == 0 {
		return fallback
	}
	return time.Duration(d)
}
