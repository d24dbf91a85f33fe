package config

import (
	"fmt"
	"time"

	iso8601 "github.com/senseyeio/duration"
	"gopkg.in/yaml.v3"
)

// Duration accepts ISO 8601 durations (PT10M) in config files, Go duration strings are also allowed
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}

	parsed, err := ParseDuration(raw)
	if err != nil {
		return err
	}

	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// ParseDuration converts an ISO 8601 duration into a time.Duration.
// Calendar units are resolved against the unix epoch so P1D is always 24 hours.
func ParseDuration(raw string) (time.Duration, error) {
	isoDuration, err := iso8601.ParseISO8601(raw)
	if err == nil {
		reference := time.Unix(0, 0).UTC()
		return isoDuration.Shift(reference).Sub(reference), nil
	}

	parsed, goErr := time.ParseDuration(raw)
	if goErr != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
	}

	return parsed, nil
}
