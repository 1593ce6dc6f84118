package domain

import (
	"fmt"
	"math"
)

// VerticalDomain is an ordered set of finite pressure levels. Levels are
// strictly monotonic and kept in the order they were supplied.
type VerticalDomain struct {
	Levels []float64 `json:"levels"`
	Unit   Unit      `json:"unit"`
}

// Len returns the number of levels.
func (d *VerticalDomain) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Levels)
}

// Profile is a single-component field (temperature or dew point) over a
// vertical domain.
type Profile struct {
	Domain *VerticalDomain `json:"domain"`
	Values Samples         `json:"values"`
}

// WindProfile is a two-component wind field over a vertical domain.
type WindProfile struct {
	Domain *VerticalDomain `json:"domain"`
	U      Samples         `json:"u"`
	V      Samples         `json:"v"`
}

// ProfileSet holds one temperature, dew-point and (optionally) wind field per
// entry of a time axis. Wind is nil when the source carries no wind.
type ProfileSet struct {
	Temperature []Profile     `json:"temperature"`
	DewPoint    []Profile     `json:"dewpoint"`
	Wind        []WindProfile `json:"wind,omitempty"`
}

// Len returns the number of profile triples.
func (s ProfileSet) Len() int {
	return len(s.Temperature)
}

// Validate checks the parallel-array invariants against a time axis of
// length n.
func (s ProfileSet) Validate(n int) error {
	if len(s.Temperature) != n || len(s.DewPoint) != n {
		return fmt.Errorf("%w: %d temperature and %d dew-point profiles for %d times",
			ErrInvalidArgument, len(s.Temperature), len(s.DewPoint), n)
	}
	if s.Wind != nil && len(s.Wind) != n {
		return fmt.Errorf("%w: %d wind profiles for %d times", ErrInvalidArgument, len(s.Wind), n)
	}
	return nil
}

// NewVerticalDomain validates pressure levels in unit u and returns them as a
// domain in hPa. Levels must be finite and strictly monotonic.
func NewVerticalDomain(levels []float64, u Unit) (*VerticalDomain, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("%w: no valid vertical levels", ErrInsufficientData)
	}
	hPa, err := ToHectoPascal(levels, u)
	if err != nil {
		return nil, err
	}
	for i, v := range hPa {
		if !Finite(v) {
			return nil, fmt.Errorf("%w: level %d is not finite", ErrInvalidArgument, i)
		}
	}
	if !strictlyMonotonic(hPa) {
		return nil, fmt.Errorf("%w: vertical levels are not strictly monotonic", ErrInvalidArgument)
	}
	return &VerticalDomain{Levels: hPa, Unit: HectoPascal}, nil
}

func strictlyMonotonic(v []float64) bool {
	if len(v) < 2 {
		return true
	}
	increasing := v[1] > v[0]
	for i := 1; i < len(v); i++ {
		if increasing && v[i] <= v[i-1] {
			return false
		}
		if !increasing && v[i] >= v[i-1] {
			return false
		}
	}
	return true
}

// ValidLevels returns the positions of the finite entries of coord, in input
// order.
func ValidLevels(coord []float64) []int {
	keep := make([]int, 0, len(coord))
	for i, v := range coord {
		if v == v && !math.IsInf(v, 0) {
			keep = append(keep, i)
		}
	}
	return keep
}

// Pick returns values at the given positions. A position past the end of
// values yields NaN.
func Pick(values []float64, positions []int) Samples {
	out := make(Samples, len(positions))
	for i, p := range positions {
		if p < len(values) {
			out[i] = values[p]
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// BuildVerticalDomain filters non-finite levels out of a raw vertical
// coordinate, converts altitude to pressure when needed, and returns the
// domain together with the kept positions so value arrays can be filtered the
// same way.
func BuildVerticalDomain(raw []float64, kind VerticalCoordinate, u Unit) (*VerticalDomain, []int, error) {
	keep := ValidLevels(raw)
	if len(keep) == 0 {
		return nil, nil, fmt.Errorf("%w: all %d vertical levels are missing", ErrInsufficientData, len(raw))
	}
	levels := []float64(Pick(raw, keep))

	switch kind {
	case CoordPressure, "":
		d, err := NewVerticalDomain(levels, u)
		return d, keep, err
	case CoordAltitude:
		meters, err := ToMeters(levels, u)
		if err != nil {
			return nil, nil, err
		}
		d, err := NewVerticalDomain(AltitudesToPressures(meters), HectoPascal)
		return d, keep, err
	default:
		return nil, nil, fmt.Errorf("%w: unknown vertical coordinate %q", ErrInvalidArgument, kind)
	}
}

// NewProfile builds a single-component field over d.
func NewProfile(d *VerticalDomain, values Samples) (Profile, error) {
	if len(values) != d.Len() {
		return Profile{}, fmt.Errorf("%w: %d values for %d levels", ErrInvalidArgument, len(values), d.Len())
	}
	return Profile{Domain: d, Values: values}, nil
}

// NewWindProfile builds a two-component field over d.
func NewWindProfile(d *VerticalDomain, u, v Samples) (WindProfile, error) {
	if len(u) != d.Len() || len(v) != d.Len() {
		return WindProfile{}, fmt.Errorf("%w: %d/%d wind components for %d levels",
			ErrInvalidArgument, len(u), len(v), d.Len())
	}
	return WindProfile{Domain: d, U: u, V: v}, nil
}

// WindFromSpeedDirection converts speed/direction arrays to u/v arrays.
func WindFromSpeedDirection(speed, direction []float64) (u, v Samples) {
	u = make(Samples, len(speed))
	v = make(Samples, len(speed))
	for i := range speed {
		dir := math.NaN()
		if i < len(direction) {
			dir = direction[i]
		}
		u[i], v[i] = WindComponents(speed[i], dir)
	}
	return u, v
}
