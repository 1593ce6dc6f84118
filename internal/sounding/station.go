package sounding

import (
	"fmt"
	"time"

	"github.com/couchcryptid/storm-sounding-service/internal/domain"
)

// stationAdapter serves a single radiosonde ascent. The probe cannot move it:
// setLocation and setTime are no-ops.
type stationAdapter struct {
	times    []time.Time
	location domain.Point
	profiles domain.ProfileSet
}

func (a *stationAdapter) load(data domain.Data) error {
	st, ok := data.(domain.StationSounding)
	if !ok {
		return fmt.Errorf("%w: station adapter cannot read %T", domain.ErrInvalidArgument, data)
	}
	if !st.Location.Valid() {
		return fmt.Errorf("%w: station %q has no valid location", domain.ErrInvalidArgument, st.Station)
	}

	var (
		set domain.ProfileSet
		err error
	)
	if st.Packaged != nil {
		set, err = packagedProfiles(st.Packaged)
	} else {
		set, err = unpackStation(st)
	}
	if err != nil {
		return fmt.Errorf("station %q: %w", st.Station, err)
	}

	t := st.Time
	if t.IsZero() {
		t = domain.Now()
	}
	a.times = []time.Time{t}
	a.location = st.Location
	a.profiles = set
	return nil
}

func packagedProfiles(p *domain.StationProfile) (domain.ProfileSet, error) {
	if p.Temperature.Domain == nil || p.DewPoint.Domain == nil {
		return domain.ProfileSet{}, fmt.Errorf("%w: packaged profile without a vertical domain", domain.ErrInvalidArgument)
	}
	if len(p.Temperature.Values) != p.Temperature.Domain.Len() || len(p.DewPoint.Values) != p.DewPoint.Domain.Len() {
		return domain.ProfileSet{}, fmt.Errorf("%w: packaged profile values do not match their domain", domain.ErrInvalidArgument)
	}
	set := domain.ProfileSet{
		Temperature: []domain.Profile{p.Temperature},
		DewPoint:    []domain.Profile{p.DewPoint},
	}
	if p.Wind != nil {
		set.Wind = []domain.WindProfile{*p.Wind}
	}
	return set, nil
}

// unpackStation builds profiles from level arrays. Levels with a missing
// pressure are dropped; missing temperature or dew-point values are kept.
func unpackStation(st domain.StationSounding) (domain.ProfileSet, error) {
	n := len(st.Pressure)
	if len(st.Temperature) != n || len(st.DewPoint) != n {
		return domain.ProfileSet{}, fmt.Errorf("%w: %d pressures, %d temperatures, %d dew points",
			domain.ErrInvalidArgument, n, len(st.Temperature), len(st.DewPoint))
	}
	hasWind := st.WindSpeed != nil || st.WindDirection != nil
	if hasWind && (len(st.WindSpeed) != n || len(st.WindDirection) != n) {
		return domain.ProfileSet{}, fmt.Errorf("%w: wind arrays must both have %d levels",
			domain.ErrInvalidArgument, n)
	}

	dom, keep, err := domain.BuildVerticalDomain(st.Pressure, domain.CoordPressure, domain.HectoPascal)
	if err != nil {
		return domain.ProfileSet{}, err
	}
	temp, err := domain.NewProfile(dom, domain.Pick(st.Temperature, keep))
	if err != nil {
		return domain.ProfileSet{}, err
	}
	dew, err := domain.NewProfile(dom, domain.Pick(st.DewPoint, keep))
	if err != nil {
		return domain.ProfileSet{}, err
	}
	set := domain.ProfileSet{
		Temperature: []domain.Profile{temp},
		DewPoint:    []domain.Profile{dew},
	}
	if hasWind {
		u, v := domain.WindFromSpeedDirection(domain.Pick(st.WindSpeed, keep), domain.Pick(st.WindDirection, keep))
		wind, err := domain.NewWindProfile(dom, u, v)
		if err != nil {
			return domain.ProfileSet{}, err
		}
		set.Wind = []domain.WindProfile{wind}
	}
	return set, nil
}

func (a *stationAdapter) publish(out emitter) {
	out.timeAxis(a.times)
	out.timeIndex(0)
	out.location(a.location)
	out.locationAxis([]domain.Point{a.location})
	out.profiles(a.profiles)
}

func (a *stationAdapter) setLocation(domain.Point, emitter) error { return nil }

func (a *stationAdapter) setTime(time.Time, emitter) error { return nil }
