package sounding

import (
	"log/slog"
	"time"

	"github.com/couchcryptid/storm-sounding-service/internal/domain"
	"github.com/couchcryptid/storm-sounding-service/internal/observability"
)

// emitter receives an adapter's raw output. The Dispatcher's emitter
// deduplicates and forwards to the Listener.
type emitter interface {
	timeIndex(i int)
	timeAxis(times []time.Time)
	location(p domain.Point)
	locationAxis(points []domain.Point)
	profiles(set domain.ProfileSet)
}

// adapter normalizes one sounding shape.
//
// load extracts everything it needs from data without emitting, so a failed
// load can be dropped with no visible effect. publish emits the full
// canonical output of a loaded sounding. setLocation and setTime adjust the
// probe and emit whatever changed.
type adapter interface {
	load(data domain.Data) error
	publish(out emitter)
	setLocation(p domain.Point, out emitter) error
	setTime(t time.Time, out emitter) error
}

// discard drops every emission.
type discard struct{}

func (discard) timeIndex(int)               {}
func (discard) timeAxis([]time.Time)        {}
func (discard) location(domain.Point)       {}
func (discard) locationAxis([]domain.Point) {}
func (discard) profiles(domain.ProfileSet)  {}

// newAdapter returns an unloaded adapter for shape.
func newAdapter(shape Shape, logger *slog.Logger, metrics *observability.Metrics) adapter {
	switch shape {
	case ShapeStation:
		return &stationAdapter{}
	case ShapeTrack:
		return &trackAdapter{}
	case ShapeSingleTimeGrid:
		return &singleTimeAdapter{gridBase{logger: logger, metrics: metrics}}
	default:
		return &timeSeriesAdapter{gridBase{logger: logger, metrics: metrics}}
	}
}
