package sounding

import (
	"sync/atomic"
	"testing"

	"github.com/couchcryptid/storm-sounding-service/internal/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingAdapter pauses inside load until released.
type blockingAdapter struct {
	adapter
	loading chan struct{}
	release chan struct{}
}

func (b *blockingAdapter) load(data domain.Data) error {
	close(b.loading)
	<-b.release
	return b.adapter.load(data)
}

// pausingAdapter publishes once, pauses, then publishes again plus a
// location of its own.
type pausingAdapter struct {
	adapter
	published chan struct{}
	resume    chan struct{}
}

var strayPoint = domain.Point{Lat: 1, Lon: 1}

func (p *pausingAdapter) publish(out emitter) {
	p.adapter.publish(out)
	close(p.published)
	<-p.resume
	p.adapter.publish(out)
	out.location(strayPoint)
}

// steeringAdapter pauses inside setLocation until released.
type steeringAdapter struct {
	adapter
	steering chan struct{}
	release  chan struct{}
}

func (s *steeringAdapter) setLocation(p domain.Point, out emitter) error {
	close(s.steering)
	<-s.release
	return s.adapter.setLocation(p, out)
}

// firstWrapped makes the dispatcher wrap only the first adapter it builds.
func firstWrapped(d *Dispatcher, wrap func(adapter) adapter) {
	var built atomic.Int32
	d.factory = func(s Shape) adapter {
		a := newAdapter(s, d.logger, d.metrics)
		if built.Add(1) == 1 {
			return wrap(a)
		}
		return a
	}
}

func TestDispatcher_SlowLoadSupersededByNewerData(t *testing.T) {
	d, rec, metrics := newTestDispatcher()
	slow := &blockingAdapter{loading: make(chan struct{}), release: make(chan struct{})}
	firstWrapped(d, func(a adapter) adapter {
		slow.adapter = a
		return slow
	})

	errc := make(chan error, 1)
	go func() { errc <- d.SetData(stationSounding(30)) }()
	<-slow.loading

	require.NoError(t, d.SetData(stationSounding(15)))
	close(slow.release)
	require.NoError(t, <-errc, "a superseded load is not an error")

	profiles := rec.profiles()
	require.Len(t, profiles, 1, "the stale sounding never reaches the listener")
	assert.Equal(t, 15.0, profiles[0].Temperature[0].Values[0])
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SupersededLoads), 0)
}

func TestDispatcher_ReplacedAdapterEmissionsDropped(t *testing.T) {
	d, rec, metrics := newTestDispatcher()
	first := &pausingAdapter{published: make(chan struct{}), resume: make(chan struct{})}
	firstWrapped(d, func(a adapter) adapter {
		first.adapter = a
		return first
	})

	errc := make(chan error, 1)
	go func() { errc <- d.SetData(trackSounding()) }()
	<-first.published

	require.NoError(t, d.SetData(stationSounding(15)))
	close(first.resume)
	require.NoError(t, <-errc)

	locations := rec.locations()
	require.Len(t, locations, 2)
	assert.Equal(t, denver, locations[1])
	assert.NotContains(t, locations, strayPoint)

	profiles := rec.profiles()
	require.Len(t, profiles, 2)
	assert.Equal(t, 15.0, profiles[1].Temperature[0].Values[0])
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Notifications.WithLabelValues("profiles", "stale")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.Notifications.WithLabelValues("location", "stale")), 0)

	shape, _ := d.Active()
	assert.Equal(t, ShapeStation, shape)
}

func TestDispatcher_LocationSurvivesAdapterSwap(t *testing.T) {
	d, rec, _ := newTestDispatcher()
	first := &steeringAdapter{steering: make(chan struct{}), release: make(chan struct{})}
	firstWrapped(d, func(a adapter) adapter {
		first.adapter = a
		return first
	})
	require.NoError(t, d.SetData(gridSeries(t0)))

	errc := make(chan error, 1)
	go func() { errc <- d.SetLocation(gridColumns[1]) }()
	<-first.steering

	require.NoError(t, d.SetData(gridSeries(t0, t1)))
	close(first.release)
	require.NoError(t, <-errc)

	locations := rec.locations()
	require.NotEmpty(t, locations)
	assert.Equal(t, gridColumns[1], locations[len(locations)-1], "the new adapter follows the requested location")

	// Repeating the request is a no-op because the active adapter is already there.
	rec.reset()
	require.NoError(t, d.SetLocation(gridColumns[1]))
	assert.Empty(t, rec.all())
}
