package sounding

import (
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/storm-sounding-service/internal/domain"
	"github.com/couchcryptid/storm-sounding-service/internal/observability"
)

// --- recorder ---

type call struct {
	channel Channel
	value   any
}

type recorder struct {
	mu    sync.Mutex
	calls []call
}

func (r *recorder) add(ch Channel, v any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{channel: ch, value: v})
}

func (r *recorder) OnTimeIndex(i int)                    { r.add(ChannelTimeIndex, i) }
func (r *recorder) OnTimeAxis(times []time.Time)         { r.add(ChannelTimeAxis, times) }
func (r *recorder) OnLocation(p domain.Point)            { r.add(ChannelLocation, p) }
func (r *recorder) OnLocationAxis(points []domain.Point) { r.add(ChannelLocationAxis, points) }
func (r *recorder) OnProfiles(set domain.ProfileSet)     { r.add(ChannelProfiles, set) }

func (r *recorder) all() []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]call, len(r.calls))
	copy(out, r.calls)
	return out
}

func (r *recorder) channels() []Channel {
	var out []Channel
	for _, c := range r.all() {
		out = append(out, c.channel)
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

func (r *recorder) profiles() []domain.ProfileSet {
	var out []domain.ProfileSet
	for _, c := range r.all() {
		if c.channel == ChannelProfiles {
			out = append(out, c.value.(domain.ProfileSet))
		}
	}
	return out
}

func (r *recorder) locations() []domain.Point {
	var out []domain.Point
	for _, c := range r.all() {
		if c.channel == ChannelLocation {
			out = append(out, c.value.(domain.Point))
		}
	}
	return out
}

func (r *recorder) timeIndexes() []int {
	var out []int
	for _, c := range r.all() {
		if c.channel == ChannelTimeIndex {
			out = append(out, c.value.(int))
		}
	}
	return out
}

func newTestDispatcher() (*Dispatcher, *recorder, *observability.Metrics) {
	rec := &recorder{}
	metrics := observability.NewMetricsForTesting()
	return NewDispatcher(rec, slog.Default(), metrics), rec, metrics
}

// --- fixtures ---

var (
	t0 = time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)
	t1 = t0.Add(3 * time.Hour)
	t2 = t0.Add(6 * time.Hour)

	denver = domain.Point{Lat: 39.77, Lon: -104.87, Alt: 1611}
)

func stationSounding(surfaceTemp float64) domain.StationSounding {
	return domain.StationSounding{
		Station:       "DNR",
		Location:      denver,
		Time:          t0,
		Pressure:      domain.Samples{1000, 850, 700},
		Temperature:   domain.Samples{surfaceTemp, 10, 5},
		DewPoint:      domain.Samples{10, 5, 0},
		WindSpeed:     domain.Samples{5, 10, 15},
		WindDirection: domain.Samples{270, 270, 270},
	}
}

func trackSounding() domain.TrackSounding {
	return domain.TrackSounding{
		Times:         []time.Time{t0, t1, t2},
		Pressure:      domain.Samples{850, 1000, 700},
		Temperature:   domain.Samples{5, 15, -5},
		DewPoint:      domain.Samples{0, 10, -10},
		WindSpeed:     domain.Samples{10, 5, 20},
		WindDirection: domain.Samples{180, 180, 180},
		Lat:           domain.Samples{35.1, 35.0, 35.2},
		Lon:           domain.Samples{-97.1, -97.0, -97.2},
		Alt:           domain.Samples{1500, 100, 3000},
	}
}

var gridColumns = []domain.Point{
	{Lat: 40, Lon: -105},
	{Lat: 41, Lon: -104},
}

// gridStep builds a two-column pressure-level step. Column 1 is 2 K warmer
// than column 0 and every value is shifted by offset.
func gridStep(offset float64) domain.GridStep {
	levels := []float64{1000, 850, 700}
	return domain.GridStep{
		Columns:         gridColumns,
		Vertical:        [][]float64{levels, levels},
		VerticalKind:    domain.CoordPressure,
		VerticalUnit:    domain.HectoPascal,
		Temperature:     [][]float64{{288 + offset, 283 + offset, 278 + offset}, {290 + offset, 285 + offset, 280 + offset}},
		TemperatureUnit: domain.Kelvin,
		DewPoint:        [][]float64{{283, 278, 273}, {285, 280, 275}},
		U:               [][]float64{{1, 2, 3}, {4, 5, 6}},
		V:               [][]float64{{0, 0, 0}, {1, 1, 1}},
		WindUnit:        domain.MeterPerSecond,
	}
}

func gridSeries(times ...time.Time) domain.GridSeries {
	g := domain.GridSeries{Times: times}
	for i := range times {
		g.Steps = append(g.Steps, gridStep(float64(i)))
	}
	return g
}
