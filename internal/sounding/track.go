package sounding

import (
	"fmt"
	"time"

	"github.com/couchcryptid/storm-sounding-service/internal/domain"
)

// trackAdapter serves samples from a moving platform (aircraft, dropsonde).
// Samples are ordered by strictly decreasing pressure; the first sample in
// that order is the primary one and supplies the time and location.
type trackAdapter struct {
	times        []time.Time
	location     domain.Point
	locationAxis []domain.Point
	profiles     domain.ProfileSet
}

func (a *trackAdapter) load(data domain.Data) error {
	tr, ok := data.(domain.TrackSounding)
	if !ok {
		return fmt.Errorf("%w: track adapter cannot read %T", domain.ErrInvalidArgument, data)
	}
	n := tr.Len()
	if n < 0 {
		return fmt.Errorf("%w: track arrays have mismatched lengths", domain.ErrInvalidArgument)
	}

	order := domain.StrictSortIndexes(tr.Pressure, true)
	if len(order) == 0 {
		return fmt.Errorf("%w: track has no sample with a valid pressure", domain.ErrInsufficientData)
	}
	primary := order[0]
	location, ok := trackPoint(tr, primary)
	if !ok {
		return fmt.Errorf("%w: primary sample %d has no valid position", domain.ErrInvalidArgument, primary)
	}

	dom, err := domain.NewVerticalDomain(domain.Pick(tr.Pressure, order), domain.HectoPascal)
	if err != nil {
		return err
	}
	temp, err := domain.NewProfile(dom, domain.Pick(tr.Temperature, order))
	if err != nil {
		return err
	}
	dew, err := domain.NewProfile(dom, domain.Pick(tr.DewPoint, order))
	if err != nil {
		return err
	}
	u, v := domain.WindFromSpeedDirection(domain.Pick(tr.WindSpeed, order), domain.Pick(tr.WindDirection, order))
	wind, err := domain.NewWindProfile(dom, u, v)
	if err != nil {
		return err
	}

	axis := make([]domain.Point, n)
	for i := range n {
		axis[i], _ = trackPoint(tr, i)
	}

	a.times = []time.Time{tr.Times[primary]}
	a.location = location
	a.locationAxis = axis
	a.profiles = domain.ProfileSet{
		Temperature: []domain.Profile{temp},
		DewPoint:    []domain.Profile{dew},
		Wind:        []domain.WindProfile{wind},
	}
	return nil
}

// trackPoint returns sample i as a Point. A missing altitude becomes 0
// (unknown); ok is false when the horizontal position is unusable.
func trackPoint(tr domain.TrackSounding, i int) (domain.Point, bool) {
	alt := tr.Alt[i]
	if !domain.Finite(alt) {
		alt = 0
	}
	p := domain.Point{Lat: tr.Lat[i], Lon: tr.Lon[i], Alt: alt}
	return p, p.Valid()
}

func (a *trackAdapter) publish(out emitter) {
	out.timeAxis(a.times)
	out.timeIndex(0)
	out.location(a.location)
	out.locationAxis(a.locationAxis)
	out.profiles(a.profiles)
}

func (a *trackAdapter) setLocation(domain.Point, emitter) error { return nil }

func (a *trackAdapter) setTime(time.Time, emitter) error { return nil }
