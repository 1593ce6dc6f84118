package sounding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/storm-sounding-service/internal/domain"
	"github.com/couchcryptid/storm-sounding-service/internal/observability"
)

// ErrNoSounding is returned by CheckReadiness before any sounding loaded.
var ErrNoSounding = errors.New("no sounding loaded")

// Dispatcher owns the active adapter and forwards its output to a Listener,
// suppressing notifications whose value did not change.
//
// Every SetData gets a ticket. The adapter built from the newest ticket to
// finish loading becomes active; an older load that finishes later is
// discarded, and emissions from an adapter that is no longer active are
// dropped. Listener calls are serialized.
type Dispatcher struct {
	listener Listener
	logger   *slog.Logger
	metrics  *observability.Metrics

	// factory builds an unloaded adapter for a shape.
	factory func(Shape) adapter

	deliverMu sync.Mutex

	mu           sync.Mutex
	active       adapter
	activeShape  Shape
	activeTicket uint64
	tickets      uint64
	probe        probeInputs
	state        DedupState
}

// probeInputs are the last location and time requested by the user. They are
// applied to every newly loaded adapter.
type probeInputs struct {
	location *domain.Point
	time     *time.Time
}

// NewDispatcher creates a Dispatcher with no active adapter.
func NewDispatcher(listener Listener, logger *slog.Logger, metrics *observability.Metrics) *Dispatcher {
	d := &Dispatcher{
		listener: listener,
		logger:   logger,
		metrics:  metrics,
	}
	d.factory = func(s Shape) adapter { return newAdapter(s, logger, metrics) }
	return d
}

// SetData classifies data, loads it into a fresh adapter and makes that
// adapter active. On error the previous adapter and every cached value are
// left untouched. A load overtaken by a newer SetData is discarded and
// returns nil.
func (d *Dispatcher) SetData(data domain.Data) error {
	shape := Classify(data)
	d.metrics.SetData.WithLabelValues(shape.String()).Inc()

	d.mu.Lock()
	d.tickets++
	ticket := d.tickets
	d.mu.Unlock()

	a := d.factory(shape)
	start := time.Now()
	if err := a.load(data); err != nil {
		d.metrics.SetDataErrors.WithLabelValues(shape.String()).Inc()
		return fmt.Errorf("load %s sounding: %w", shape, err)
	}
	d.metrics.ExtractDuration.WithLabelValues(shape.String()).Observe(time.Since(start).Seconds())

	d.mu.Lock()
	if ticket < d.activeTicket {
		d.mu.Unlock()
		d.metrics.SupersededLoads.Inc()
		d.logger.Debug("discarding superseded sounding", "shape", shape, "ticket", ticket)
		return nil
	}
	d.active, d.activeShape, d.activeTicket = a, shape, ticket
	probe := d.probe
	d.mu.Unlock()

	d.applyProbe(a, probe)
	a.publish(d.gate(ticket))

	d.logger.Info("sounding loaded", "shape", shape, "ticket", ticket)
	return nil
}

// applyProbe positions a freshly loaded adapter at the recorded probe inputs
// without emitting; publish reports the result.
func (d *Dispatcher) applyProbe(a adapter, probe probeInputs) {
	if probe.location != nil {
		if err := a.setLocation(*probe.location, discard{}); err != nil {
			d.logger.Warn("apply recorded location", "error", err)
		}
	}
	if probe.time != nil {
		if err := a.setTime(*probe.time, discard{}); err != nil {
			d.logger.Warn("apply recorded time", "error", err)
		}
	}
}

// SetLocation moves the probe. A location equal to the last one is ignored.
// With no active adapter the location is only recorded.
func (d *Dispatcher) SetLocation(p domain.Point) error {
	if !p.Valid() {
		return fmt.Errorf("%w: invalid location %+v", domain.ErrInvalidArgument, p)
	}

	d.mu.Lock()
	same := d.probe.location != nil && *d.probe.location == p
	d.mu.Unlock()
	if same {
		return nil
	}

	err := d.steer(
		func(a adapter, out emitter) error { return a.setLocation(p, out) },
		func() { d.probe.location = &p },
	)
	if err != nil {
		return fmt.Errorf("set location: %w", err)
	}
	return nil
}

// SetTime selects the time step nearest to t. A time equal to the last one is
// ignored. With no active adapter the time is only recorded.
func (d *Dispatcher) SetTime(t time.Time) error {
	if t.IsZero() {
		return fmt.Errorf("%w: time is unset", domain.ErrInvalidArgument)
	}

	d.mu.Lock()
	same := d.probe.time != nil && d.probe.time.Equal(t)
	d.mu.Unlock()
	if same {
		return nil
	}

	err := d.steer(
		func(a adapter, out emitter) error { return a.setTime(t, out) },
		func() { d.probe.time = &t },
	)
	if err != nil {
		return fmt.Errorf("set time: %w", err)
	}
	return nil
}

// steer applies a probe change to the active adapter and then records it
// under the lock. If SetData swapped adapters while the change was being
// applied, the new adapter was positioned from the old probe, so the change
// is applied again to it.
func (d *Dispatcher) steer(apply func(adapter, emitter) error, record func()) error {
	d.mu.Lock()
	for {
		a, ticket := d.active, d.activeTicket
		if a == nil {
			record()
			d.mu.Unlock()
			return nil
		}
		d.mu.Unlock()

		if err := apply(a, d.gate(ticket)); err != nil {
			return err
		}

		d.mu.Lock()
		if ticket == d.activeTicket {
			record()
			d.mu.Unlock()
			return nil
		}
	}
}

// Active reports the shape of the active adapter.
func (d *Dispatcher) Active() (Shape, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.activeShape, d.active != nil
}

// CheckReadiness reports whether a sounding has been loaded.
func (d *Dispatcher) CheckReadiness(_ context.Context) error {
	if _, ok := d.Active(); !ok {
		return ErrNoSounding
	}
	return nil
}

// deliver forwards one emission from the adapter holding ticket. Emissions
// from an inactive adapter and values equal to the cached one are dropped.
func (d *Dispatcher) deliver(ticket uint64, ch Channel, offer func(*DedupState) bool, send func(Listener)) {
	d.deliverMu.Lock()
	defer d.deliverMu.Unlock()

	d.mu.Lock()
	if ticket != d.activeTicket {
		d.mu.Unlock()
		d.metrics.Notifications.WithLabelValues(string(ch), "stale").Inc()
		return
	}
	changed := offer(&d.state)
	d.mu.Unlock()

	if !changed {
		d.metrics.Notifications.WithLabelValues(string(ch), "suppressed").Inc()
		return
	}
	d.metrics.Notifications.WithLabelValues(string(ch), "delivered").Inc()
	send(d.listener)
}

func (d *Dispatcher) gate(ticket uint64) gate {
	return gate{d: d, ticket: ticket}
}

// gate is the emitter handed to the adapter holding ticket.
type gate struct {
	d      *Dispatcher
	ticket uint64
}

func (g gate) timeIndex(i int) {
	g.d.deliver(g.ticket, ChannelTimeIndex,
		func(s *DedupState) bool { return s.timeIndex.offer(i) },
		func(l Listener) { l.OnTimeIndex(i) })
}

func (g gate) timeAxis(times []time.Time) {
	g.d.deliver(g.ticket, ChannelTimeAxis,
		func(s *DedupState) bool { return s.timeAxis.offer(times) },
		func(l Listener) { l.OnTimeAxis(times) })
}

func (g gate) location(p domain.Point) {
	g.d.deliver(g.ticket, ChannelLocation,
		func(s *DedupState) bool { return s.location.offer(p) },
		func(l Listener) { l.OnLocation(p) })
}

func (g gate) locationAxis(points []domain.Point) {
	g.d.deliver(g.ticket, ChannelLocationAxis,
		func(s *DedupState) bool { return s.locationAxis.offer(points) },
		func(l Listener) { l.OnLocationAxis(points) })
}

func (g gate) profiles(set domain.ProfileSet) {
	g.d.deliver(g.ticket, ChannelProfiles,
		func(s *DedupState) bool { return s.profiles.offer(set) },
		func(l Listener) { l.OnProfiles(set) })
}
