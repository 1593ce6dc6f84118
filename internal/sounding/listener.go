package sounding

import (
	"sync"
	"time"

	"github.com/couchcryptid/storm-sounding-service/internal/domain"
)

// Listener receives the deduplicated canonical output. Calls are serialized
// by the Dispatcher. Implementations must not modify the values they receive
// and must not call back into the Dispatcher synchronously.
type Listener interface {
	OnTimeIndex(index int)
	OnTimeAxis(times []time.Time)
	OnLocation(p domain.Point)
	OnLocationAxis(points []domain.Point)
	OnProfiles(profiles domain.ProfileSet)
}

// Fanout forwards every notification to each listener in order.
type Fanout []Listener

func (f Fanout) OnTimeIndex(index int) {
	for _, l := range f {
		l.OnTimeIndex(index)
	}
}

func (f Fanout) OnTimeAxis(times []time.Time) {
	for _, l := range f {
		l.OnTimeAxis(times)
	}
}

func (f Fanout) OnLocation(p domain.Point) {
	for _, l := range f {
		l.OnLocation(p)
	}
}

func (f Fanout) OnLocationAxis(points []domain.Point) {
	for _, l := range f {
		l.OnLocationAxis(points)
	}
}

func (f Fanout) OnProfiles(profiles domain.ProfileSet) {
	for _, l := range f {
		l.OnProfiles(profiles)
	}
}

// CanonicalOutput is the normalized view of the loaded sounding.
type CanonicalOutput struct {
	TimeAxis     []time.Time       `json:"time_axis"`
	TimeIndex    int               `json:"time_index"`
	Location     *domain.Point     `json:"location,omitempty"`
	LocationAxis []domain.Point    `json:"location_axis"`
	Profiles     domain.ProfileSet `json:"profiles"`
}

// Snapshot is a Listener that keeps the latest value of every channel.
type Snapshot struct {
	mu  sync.RWMutex
	out CanonicalOutput
}

// NewSnapshot returns an empty snapshot with the time index unset.
func NewSnapshot() *Snapshot {
	return &Snapshot{out: CanonicalOutput{TimeIndex: -1}}
}

// Current returns a copy of the latest canonical output.
func (s *Snapshot) Current() CanonicalOutput {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.out
	if out.Location != nil {
		p := *out.Location
		out.Location = &p
	}
	return out
}

func (s *Snapshot) OnTimeIndex(index int) {
	s.mu.Lock()
	s.out.TimeIndex = index
	s.mu.Unlock()
}

func (s *Snapshot) OnTimeAxis(times []time.Time) {
	s.mu.Lock()
	s.out.TimeAxis = times
	s.mu.Unlock()
}

func (s *Snapshot) OnLocation(p domain.Point) {
	s.mu.Lock()
	s.out.Location = &p
	s.mu.Unlock()
}

func (s *Snapshot) OnLocationAxis(points []domain.Point) {
	s.mu.Lock()
	s.out.LocationAxis = points
	s.mu.Unlock()
}

func (s *Snapshot) OnProfiles(profiles domain.ProfileSet) {
	s.mu.Lock()
	s.out.Profiles = profiles
	s.mu.Unlock()
}
