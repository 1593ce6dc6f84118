// Package netcdf loads model output stored as NetCDF into a grid time series.
//
// The file must hold 1-D coordinate variables for time, level, latitude and
// longitude, and 4-D data variables laid out (time, level, lat, lon). Units
// are taken from each variable's "units" attribute and values equal to
// _FillValue or missing_value become NaN.
package netcdf

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	cdf "github.com/fhs/go-netcdf/netcdf"

	"github.com/couchcryptid/storm-sounding-service/internal/config"
	"github.com/couchcryptid/storm-sounding-service/internal/domain"
)

// Loader reads grid files using the configured variable names.
type Loader struct {
	cfg    config.GridConfig
	logger *slog.Logger
}

// NewLoader creates a Loader.
func NewLoader(cfg config.GridConfig, logger *slog.Logger) *Loader {
	return &Loader{cfg: cfg, logger: logger}
}

// variable is a NetCDF variable read into memory in row-major order.
type variable struct {
	name   string
	values []float64
	shape  []int
	units  string
}

// Load reads path into a GridSeries with one step per time and one column per
// (lat, lon) pair.
func (l *Loader) Load(path string) (domain.GridSeries, error) {
	f, err := cdf.OpenFile(path, cdf.NOWRITE)
	if err != nil {
		return domain.GridSeries{}, fmt.Errorf("open NetCDF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	lat, err := readFirst(f, "lat", "latitude")
	if err != nil {
		return domain.GridSeries{}, err
	}
	lon, err := readFirst(f, "lon", "longitude")
	if err != nil {
		return domain.GridSeries{}, err
	}
	level, err := readVar(f, l.cfg.LevelVar)
	if err != nil {
		return domain.GridSeries{}, err
	}
	timeVar, err := readVar(f, "time")
	if err != nil {
		return domain.GridSeries{}, err
	}
	times, err := decodeTimes(timeVar.values, timeVar.units)
	if err != nil {
		return domain.GridSeries{}, err
	}

	want := []int{len(times), len(level.values), len(lat.values), len(lon.values)}
	temp, err := readGridVar(f, l.cfg.TemperatureVar, want)
	if err != nil {
		return domain.GridSeries{}, err
	}

	var dew, rh *variable
	if l.cfg.DewPointVar != "" && hasVar(f, l.cfg.DewPointVar) {
		v, err := readGridVar(f, l.cfg.DewPointVar, want)
		if err != nil {
			return domain.GridSeries{}, err
		}
		dew = &v
	} else {
		v, err := readGridVar(f, l.cfg.RHVar, want)
		if err != nil {
			return domain.GridSeries{}, fmt.Errorf("no dew point source: %w", err)
		}
		rh = &v
	}

	var u, v *variable
	if hasVar(f, l.cfg.UVar) && hasVar(f, l.cfg.VVar) {
		uv, err := readGridVar(f, l.cfg.UVar, want)
		if err != nil {
			return domain.GridSeries{}, err
		}
		vv, err := readGridVar(f, l.cfg.VVar, want)
		if err != nil {
			return domain.GridSeries{}, err
		}
		u, v = &uv, &vv
	}

	columns := make([]domain.Point, 0, len(lat.values)*len(lon.values))
	for _, y := range lat.values {
		for _, x := range lon.values {
			columns = append(columns, domain.Point{Lat: y, Lon: x})
		}
	}
	kind, levelUnit := verticalKind(level.units)
	vertical := make([][]float64, len(columns))
	for i := range vertical {
		vertical[i] = level.values
	}

	series := domain.GridSeries{Times: times, Steps: make([]domain.GridStep, len(times))}
	for t := range times {
		step := domain.GridStep{
			Columns:         columns,
			Vertical:        vertical,
			VerticalKind:    kind,
			VerticalUnit:    levelUnit,
			Temperature:     temp.columns(t, want),
			TemperatureUnit: normalizeUnit(temp.units),
		}
		if dew != nil {
			step.DewPoint = dew.columns(t, want)
		} else {
			step.RelativeHumidity = rh.columns(t, want)
		}
		if u != nil {
			step.U = u.columns(t, want)
			step.V = v.columns(t, want)
			step.WindUnit = normalizeUnit(u.units)
		}
		series.Steps[t] = step
	}

	l.logger.Info("grid file loaded",
		"path", path,
		"times", len(times),
		"levels", len(level.values),
		"columns", len(columns),
		"wind", u != nil,
	)
	return series, nil
}

// columns slices time index t of a (time, level, lat, lon) variable into
// [column][level] rows.
func (v variable) columns(t int, shape []int) [][]float64 {
	nlev, nlat, nlon := shape[1], shape[2], shape[3]
	out := make([][]float64, nlat*nlon)
	for y := range nlat {
		for x := range nlon {
			col := make([]float64, nlev)
			for k := range nlev {
				col[k] = v.values[((t*nlev+k)*nlat+y)*nlon+x]
			}
			out[y*nlon+x] = col
		}
	}
	return out
}

func hasVar(f cdf.Dataset, name string) bool {
	if name == "" {
		return false
	}
	_, err := f.Var(name)
	return err == nil
}

func readFirst(f cdf.Dataset, names ...string) (variable, error) {
	for _, name := range names {
		if hasVar(f, name) {
			return readVar(f, name)
		}
	}
	return variable{}, fmt.Errorf("variable not found (tried: %v)", names)
}

func readGridVar(f cdf.Dataset, name string, want []int) (variable, error) {
	v, err := readVar(f, name)
	if err != nil {
		return variable{}, err
	}
	if len(v.shape) != len(want) {
		return variable{}, fmt.Errorf("variable %q: expected (time, level, lat, lon), got %dD", name, len(v.shape))
	}
	for i := range want {
		if v.shape[i] != want[i] {
			return variable{}, fmt.Errorf("variable %q: shape %v, want %v", name, v.shape, want)
		}
	}
	return v, nil
}

func readVar(f cdf.Dataset, name string) (variable, error) {
	if name == "" {
		return variable{}, errors.New("empty variable name")
	}
	nv, err := f.Var(name)
	if err != nil {
		return variable{}, fmt.Errorf("variable %q: %w", name, err)
	}
	dims, err := nv.Dims()
	if err != nil {
		return variable{}, fmt.Errorf("variable %q: failed to get dimensions: %w", name, err)
	}
	shape := make([]int, len(dims))
	n := 1
	for i, d := range dims {
		length, err := d.Len()
		if err != nil {
			return variable{}, err
		}
		shape[i] = int(length)
		n *= int(length)
	}

	values, err := readFloat64s(nv, n)
	if err != nil {
		return variable{}, fmt.Errorf("variable %q: %w", name, err)
	}
	if fill, ok := getFillValue(nv); ok {
		for i, x := range values {
			if x == fill {
				values[i] = math.NaN()
			}
		}
	}
	return variable{name: name, values: values, shape: shape, units: attrString(nv, "units")}, nil
}

// readFloat64s reads n values of a numeric variable as float64.
func readFloat64s(v cdf.Var, n int) ([]float64, error) {
	t, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get var type: %w", err)
	}
	switch t {
	case cdf.DOUBLE:
		data := make([]float64, n)
		if err := v.ReadFloat64s(data); err != nil {
			return nil, err
		}
		return data, nil
	case cdf.FLOAT:
		tmp := make([]float32, n)
		if err := v.ReadFloat32s(tmp); err != nil {
			return nil, err
		}
		return widen(tmp), nil
	case cdf.INT:
		tmp := make([]int32, n)
		if err := v.ReadInt32s(tmp); err != nil {
			return nil, err
		}
		return widen(tmp), nil
	case cdf.SHORT:
		tmp := make([]int16, n)
		if err := v.ReadInt16s(tmp); err != nil {
			return nil, err
		}
		return widen(tmp), nil
	default:
		return nil, fmt.Errorf("unsupported var type: %v", t)
	}
}

func widen[T float32 | int32 | int16](in []T) []float64 {
	out := make([]float64, len(in))
	for i, x := range in {
		out[i] = float64(x)
	}
	return out
}

// getFillValue returns the _FillValue or missing_value attribute if present.
func getFillValue(v cdf.Var) (float64, bool) {
	for _, name := range []string{"_FillValue", "missing_value"} {
		a := v.Attr(name)
		if n, err := a.Len(); err != nil || n == 0 {
			continue
		}
		buf64 := make([]float64, 1)
		if err := a.ReadFloat64s(buf64); err == nil {
			return buf64[0], true
		}
		buf32 := make([]float32, 1)
		if err := a.ReadFloat32s(buf32); err == nil {
			return float64(buf32[0]), true
		}
		bufi := make([]int32, 1)
		if err := a.ReadInt32s(bufi); err == nil {
			return float64(bufi[0]), true
		}
	}
	return 0, false
}

func attrString(v cdf.Var, name string) string {
	a := v.Attr(name)
	n, err := a.Len()
	if err != nil || n == 0 {
		return ""
	}
	buf := make([]byte, n)
	if err := a.ReadBytes(buf); err != nil {
		return ""
	}
	return strings.TrimRight(string(buf), "\x00 ")
}

// normalizeUnit maps CF unit strings onto domain units. Unknown strings pass
// through and are rejected when converted.
func normalizeUnit(s string) domain.Unit {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "k", "kelvin":
		return domain.Kelvin
	case "degc", "c", "celsius", "degree_celsius":
		return domain.Celsius
	case "pa":
		return domain.Pascal
	case "hpa", "mb", "mbar", "millibar", "millibars":
		return domain.HectoPascal
	case "m", "gpm", "meter", "meters":
		return domain.Meter
	case "km":
		return domain.Kilometer
	case "m s-1", "m s**-1", "m/s":
		return domain.MeterPerSecond
	case "kt", "kts", "knot", "knots":
		return domain.Knot
	case "%", "percent":
		return domain.Percent
	default:
		return domain.Unit(s)
	}
}

// verticalKind infers the coordinate from the level units.
func verticalKind(units string) (domain.VerticalCoordinate, domain.Unit) {
	u := normalizeUnit(units)
	switch u {
	case domain.Meter, domain.Kilometer:
		return domain.CoordAltitude, u
	default:
		return domain.CoordPressure, u
	}
}
