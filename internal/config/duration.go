package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration is a time.Duration read from the environment. On top of Go
// duration strings it takes whole days ("7d") and bare seconds ("30").
type Duration struct {
	time.Duration
}

func (d *Duration) EnvDecode(_ context.Context, v string) error {
	parsed, err := parseDuration(strings.TrimSpace(v))
	if err != nil {
		return err
	}
	if parsed != nil {
		d.Duration = *parsed
	}
	return nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	return d.EnvDecode(context.Background(), string(text))
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d Duration) String() string {
	return d.Duration.String()
}

// parseDuration returns nil for an empty value so defaults stay in place.
func parseDuration(v string) (*time.Duration, error) {
	if v == "" {
		return nil, nil
	}

	var out time.Duration
	if days, ok := strings.CutSuffix(v, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return nil, fmt.Errorf("invalid days value %q: %w", v, err)
		}
		out = time.Duration(n) * 24 * time.Hour
	} else if secs, err := strconv.Atoi(v); err == nil {
		out = time.Duration(secs) * time.Second
	} else {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid duration %q: %w", v, err)
		}
		out = parsed
	}
	return &out, nil
}
