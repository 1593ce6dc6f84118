package sounding

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/couchcryptid/storm-sounding-service/internal/domain"
	"github.com/couchcryptid/storm-sounding-service/internal/observability"
)

// gridBase holds what the single-time and time-series grid adapters share:
// validation, the vertical-domain cache, per-column profile extraction and
// probe handling. The probe location selects the nearest column of each step;
// the vertical coordinate is always read from column 0.
type gridBase struct {
	logger  *slog.Logger
	metrics *observability.Metrics

	mu        sync.Mutex
	series    domain.GridSeries
	axis      []domain.Point
	location  domain.Point
	timeIndex int
	profiles  domain.ProfileSet
	levels    levelCache
}

func (g *gridBase) loadSeries(series domain.GridSeries) error {
	if len(series.Times) != len(series.Steps) {
		return fmt.Errorf("%w: %d times for %d grid steps", domain.ErrInvalidArgument, len(series.Times), len(series.Steps))
	}
	if len(series.Steps) == 0 {
		return fmt.Errorf("%w: grid has no time steps", domain.ErrInsufficientData)
	}
	for i, step := range series.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("grid step %d: %w", i, err)
		}
		g.checkConsistency(i, step)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	at := series.Steps[0].Columns[0]
	set, err := g.buildProfiles(series, at)
	if err != nil {
		return err
	}
	g.series = series
	g.axis = series.Steps[0].Columns
	g.location = at
	g.timeIndex = 0
	g.profiles = set
	return nil
}

func validateStep(step domain.GridStep) error {
	n := len(step.Columns)
	if n == 0 {
		return fmt.Errorf("%w: no columns", domain.ErrInsufficientData)
	}
	for i, p := range step.Columns {
		if !p.Valid() {
			return fmt.Errorf("%w: column %d has an invalid position", domain.ErrInvalidArgument, i)
		}
	}
	if step.DewPoint == nil && step.RelativeHumidity == nil {
		return fmt.Errorf("%w: neither dew point nor relative humidity present", domain.ErrInvalidArgument)
	}
	if (step.U == nil) != (step.V == nil) {
		return fmt.Errorf("%w: wind needs both u and v", domain.ErrInvalidArgument)
	}
	fields := []struct {
		name     string
		rows     [][]float64
		optional bool
	}{
		{"vertical", step.Vertical, false},
		{"temperature", step.Temperature, false},
		{"dewpoint", step.DewPoint, true},
		{"relative_humidity", step.RelativeHumidity, true},
		{"u", step.U, true},
		{"v", step.V, true},
	}
	for _, f := range fields {
		if f.rows == nil && f.optional {
			continue
		}
		if len(f.rows) != n {
			return fmt.Errorf("%w: %s has %d columns, want %d", domain.ErrInvalidArgument, f.name, len(f.rows), n)
		}
	}
	return nil
}

// checkConsistency warns when columns disagree on the vertical coordinate.
// Column 0 is used regardless.
func (g *gridBase) checkConsistency(i int, step domain.GridStep) {
	ref := step.Vertical[0]
	for c := 1; c < len(step.Vertical); c++ {
		if !sameLevels(ref, step.Vertical[c]) {
			g.logger.Warn("vertical coordinate differs across columns",
				"step", i, "column", c, "kind", step.VerticalKind)
			g.metrics.Inconsistencies.Inc()
			return
		}
	}
}

// buildProfiles extracts one profile triple per step at the column nearest
// to at. Wind is produced only if every step carries it.
func (g *gridBase) buildProfiles(series domain.GridSeries, at domain.Point) (domain.ProfileSet, error) {
	n := len(series.Steps)
	set := domain.ProfileSet{
		Temperature: make([]domain.Profile, 0, n),
		DewPoint:    make([]domain.Profile, 0, n),
	}
	withWind := true
	for _, step := range series.Steps {
		withWind = withWind && step.HasWind()
	}
	if withWind {
		set.Wind = make([]domain.WindProfile, 0, n)
	}

	for i, step := range series.Steps {
		dom, keep, err := g.levels.lookup(step.Vertical[0], step.VerticalKind, step.VerticalUnit, g.metrics)
		if err != nil {
			return domain.ProfileSet{}, fmt.Errorf("grid step %d: %w", i, err)
		}
		col := nearestColumn(step.Columns, at)

		tempC, err := domain.ToCelsius(step.Temperature[col], step.TemperatureUnit)
		if err != nil {
			return domain.ProfileSet{}, err
		}
		dewC, err := dewPointColumn(step, col, tempC)
		if err != nil {
			return domain.ProfileSet{}, err
		}
		temp, err := domain.NewProfile(dom, domain.Pick(tempC, keep))
		if err != nil {
			return domain.ProfileSet{}, err
		}
		dew, err := domain.NewProfile(dom, domain.Pick(dewC, keep))
		if err != nil {
			return domain.ProfileSet{}, err
		}
		set.Temperature = append(set.Temperature, temp)
		set.DewPoint = append(set.DewPoint, dew)

		if !withWind {
			continue
		}
		u, err := domain.ToMetersPerSecond(step.U[col], step.WindUnit)
		if err != nil {
			return domain.ProfileSet{}, err
		}
		v, err := domain.ToMetersPerSecond(step.V[col], step.WindUnit)
		if err != nil {
			return domain.ProfileSet{}, err
		}
		wind, err := domain.NewWindProfile(dom, domain.Pick(u, keep), domain.Pick(v, keep))
		if err != nil {
			return domain.ProfileSet{}, err
		}
		set.Wind = append(set.Wind, wind)
	}
	return set, nil
}

// dewPointColumn returns the dew point of column col in degC, derived from
// relative humidity when the step has no dew point field.
func dewPointColumn(step domain.GridStep, col int, tempC []float64) ([]float64, error) {
	if step.DewPoint != nil {
		return domain.ToCelsius(step.DewPoint[col], step.TemperatureUnit)
	}
	rh := step.RelativeHumidity[col]
	out := make([]float64, len(tempC))
	for k, t := range tempC {
		r := math.NaN()
		if k < len(rh) {
			r = rh[k]
		}
		out[k] = domain.DewPointFromRH(t, r)
	}
	return out, nil
}

func (g *gridBase) publish(out emitter) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out.timeAxis(g.series.Times)
	out.timeIndex(g.timeIndex)
	out.location(g.location)
	out.locationAxis(g.axis)
	out.profiles(g.profiles)
}

func (g *gridBase) setLocation(p domain.Point, out emitter) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if p == g.location {
		return nil
	}
	set, err := g.buildProfiles(g.series, p)
	if err != nil {
		return err
	}
	g.location, g.profiles = p, set
	out.location(p)
	out.profiles(set)
	return nil
}

func (g *gridBase) setTime(t time.Time, out emitter) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := nearestTime(g.series.Times, t)
	if i < 0 || i == g.timeIndex {
		return nil
	}
	g.timeIndex = i
	out.timeIndex(i)
	return nil
}

// levelCache remembers the last vertical domain built so unchanged geometry
// is not rebuilt for every step.
type levelCache struct {
	kind domain.VerticalCoordinate
	unit domain.Unit
	raw  []float64
	dom  *domain.VerticalDomain
	keep []int
}

func (c *levelCache) lookup(raw []float64, kind domain.VerticalCoordinate, unit domain.Unit, metrics *observability.Metrics) (*domain.VerticalDomain, []int, error) {
	if c.dom != nil && c.kind == kind && c.unit == unit && sameLevels(c.raw, raw) {
		return c.dom, c.keep, nil
	}
	dom, keep, err := domain.BuildVerticalDomain(raw, kind, unit)
	if err != nil {
		return nil, nil, err
	}
	*c = levelCache{kind: kind, unit: unit, raw: slices.Clone(raw), dom: dom, keep: keep}
	metrics.DomainRebuilds.Inc()
	return dom, keep, nil
}

// sameLevels compares raw coordinates, treating missing values as equal.
func sameLevels(a, b []float64) bool {
	return slices.EqualFunc(a, b, func(x, y float64) bool {
		return x == y || (math.IsNaN(x) && math.IsNaN(y))
	})
}

// nearestColumn returns the index of the column closest to p on an
// equirectangular projection.
func nearestColumn(cols []domain.Point, p domain.Point) int {
	best, bestDist := 0, math.Inf(1)
	scale := math.Cos(p.Lat * math.Pi / 180)
	for i, c := range cols {
		dLat := c.Lat - p.Lat
		dLon := math.Mod(math.Abs(c.Lon-p.Lon), 360)
		if dLon > 180 {
			dLon = 360 - dLon
		}
		dLon *= scale
		if d := dLat*dLat + dLon*dLon; d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// nearestTime returns the index of the time closest to t, preferring the
// earlier one on a tie, or -1 for an empty axis.
func nearestTime(times []time.Time, t time.Time) int {
	best := -1
	var bestDiff time.Duration
	for i, ti := range times {
		d := ti.Sub(t).Abs()
		if best < 0 || d < bestDiff {
			best, bestDiff = i, d
		}
	}
	return best
}

func asGrid(data domain.Data) (domain.GridSeries, error) {
	g, ok := data.(domain.GridSeries)
	if !ok {
		return domain.GridSeries{}, fmt.Errorf("%w: grid adapter cannot read %T", domain.ErrInvalidArgument, data)
	}
	return g, nil
}

// singleTimeAdapter serves a grid with exactly one time step.
type singleTimeAdapter struct {
	gridBase
}

func (a *singleTimeAdapter) load(data domain.Data) error {
	g, err := asGrid(data)
	if err != nil {
		return err
	}
	if len(g.Times) != 1 {
		return fmt.Errorf("%w: single-time grid has %d times", domain.ErrInvalidArgument, len(g.Times))
	}
	return a.loadSeries(g)
}

// timeSeriesAdapter serves a grid with any number of time steps. It is also
// the fallback for data no other adapter claims.
type timeSeriesAdapter struct {
	gridBase
}

func (a *timeSeriesAdapter) load(data domain.Data) error {
	g, err := asGrid(data)
	if err != nil {
		return err
	}
	return a.loadSeries(g)
}
