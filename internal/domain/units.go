package domain

import "fmt"

// Unit names the physical unit of a sample array.
type Unit string

const (
	HectoPascal    Unit = "hPa"
	Pascal         Unit = "Pa"
	Meter          Unit = "m"
	Kilometer      Unit = "km"
	Celsius        Unit = "degC"
	Kelvin         Unit = "K"
	MeterPerSecond Unit = "m/s"
	Knot           Unit = "kt"
	Percent        Unit = "%"
)

const kelvinOffset = 273.15

// conversion maps a source unit onto the canonical unit of one quantity.
type conversion struct {
	canonical Unit
	from      map[Unit]func(float64) float64
}

var (
	pressureConv = conversion{
		canonical: HectoPascal,
		from: map[Unit]func(float64) float64{
			Pascal: func(v float64) float64 { return v / 100 },
		},
	}
	altitudeConv = conversion{
		canonical: Meter,
		from: map[Unit]func(float64) float64{
			Kilometer: func(v float64) float64 { return v * 1000 },
		},
	}
	temperatureConv = conversion{
		canonical: Celsius,
		from: map[Unit]func(float64) float64{
			Kelvin: func(v float64) float64 { return v - kelvinOffset },
		},
	}
	speedConv = conversion{
		canonical: MeterPerSecond,
		from: map[Unit]func(float64) float64{
			Knot: func(v float64) float64 { return v * 0.514444 },
		},
	}
)

func (c conversion) apply(values []float64, u Unit) ([]float64, error) {
	out := make([]float64, len(values))
	if u == "" || u == c.canonical {
		copy(out, values)
		return out, nil
	}
	f, ok := c.from[u]
	if !ok {
		return nil, fmt.Errorf("%w: cannot convert %q to %q", ErrInvalidArgument, u, c.canonical)
	}
	for i, v := range values {
		out[i] = f(v)
	}
	return out, nil
}

// ToHectoPascal converts pressures in unit u to hPa. The input is not modified.
func ToHectoPascal(values []float64, u Unit) ([]float64, error) {
	return pressureConv.apply(values, u)
}

// ToMeters converts altitudes in unit u to meters.
func ToMeters(values []float64, u Unit) ([]float64, error) {
	return altitudeConv.apply(values, u)
}

// ToCelsius converts temperatures in unit u to degrees Celsius.
func ToCelsius(values []float64, u Unit) ([]float64, error) {
	return temperatureConv.apply(values, u)
}

// ToMetersPerSecond converts speeds in unit u to m/s.
func ToMetersPerSecond(values []float64, u Unit) ([]float64, error) {
	return speedConv.apply(values, u)
}
