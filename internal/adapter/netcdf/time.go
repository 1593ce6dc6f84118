package netcdf

import (
	"fmt"
	"math"
	"strings"
	"time"
)

var referenceLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// decodeTimes converts CF "<unit> since <reference>" offsets to UTC times.
func decodeTimes(offsets []float64, units string) ([]time.Time, error) {
	unit, ref, ok := strings.Cut(units, " since ")
	if !ok {
		return nil, fmt.Errorf("time units %q: expected \"<unit> since <reference>\"", units)
	}

	var step time.Duration
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "seconds", "second", "s":
		step = time.Second
	case "minutes", "minute", "min":
		step = time.Minute
	case "hours", "hour", "h":
		step = time.Hour
	case "days", "day", "d":
		step = 24 * time.Hour
	default:
		return nil, fmt.Errorf("time units %q: unsupported unit %q", units, unit)
	}

	base, err := parseReference(strings.TrimSpace(ref))
	if err != nil {
		return nil, fmt.Errorf("time units %q: %w", units, err)
	}

	out := make([]time.Time, len(offsets))
	for i, off := range offsets {
		if math.IsNaN(off) {
			return nil, fmt.Errorf("time %d is missing", i)
		}
		out[i] = base.Add(time.Duration(off * float64(step))).UTC()
	}
	return out, nil
}

func parseReference(s string) (time.Time, error) {
	for _, layout := range referenceLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable reference time %q", s)
}
