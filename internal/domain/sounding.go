package domain

import (
	"encoding/json"
	"math"
	"time"
)

// Point is a geographic position. Alt is meters above mean sea level and is
// zero when unknown. Points compare with ==. In JSON a missing latitude or
// longitude is null.
type Point struct {
	Lat float64
	Lon float64
	Alt float64
}

type pointJSON struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
	Alt float64  `json:"alt,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (p Point) MarshalJSON() ([]byte, error) {
	out := pointJSON{}
	if Finite(p.Lat) {
		out.Lat = &p.Lat
	}
	if Finite(p.Lon) {
		out.Lon = &p.Lon
	}
	if Finite(p.Alt) {
		out.Alt = p.Alt
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Point) UnmarshalJSON(data []byte) error {
	var in pointJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*p = Point{Lat: math.NaN(), Lon: math.NaN(), Alt: in.Alt}
	if in.Lat != nil {
		p.Lat = *in.Lat
	}
	if in.Lon != nil {
		p.Lon = *in.Lon
	}
	return nil
}

// Valid reports whether p is a usable position: finite, latitude within
// [-90, 90] and longitude within [-180, 360].
func (p Point) Valid() bool {
	if !Finite(p.Lat) || !Finite(p.Lon) || math.IsNaN(p.Alt) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 360
}

// Kind tags a Data variant.
type Kind string

const (
	KindStation Kind = "station"
	KindTrack   Kind = "track"
	KindGrid    Kind = "grid"
)

// Data is a sounding in one of its encodings. Consumers switch on Kind rather
// than inspecting concrete types.
type Data interface {
	Kind() Kind
}

// VerticalCoordinate names what the levels of a grid step measure.
type VerticalCoordinate string

const (
	CoordPressure VerticalCoordinate = "pressure"
	CoordAltitude VerticalCoordinate = "altitude"
)

// StationSounding is a single radiosonde ascent. Either Packaged is set, or the
// level arrays are unpacked: Pressure (hPa), Temperature and DewPoint (degC)
// are required and share one length; WindSpeed (m/s) and WindDirection
// (degrees) are optional but must be given together.
type StationSounding struct {
	Station  string
	Location Point
	Time     time.Time // zero means "now"

	Pressure      Samples
	Temperature   Samples
	DewPoint      Samples
	WindSpeed     Samples
	WindDirection Samples

	Packaged *StationProfile
}

// Kind implements Data.
func (StationSounding) Kind() Kind { return KindStation }

// StationProfile is a station sounding whose fields were already built.
type StationProfile struct {
	Temperature Profile
	DewPoint    Profile
	Wind        *WindProfile
}

// TrackSounding holds samples from a moving platform; every array has one
// entry per sample and Times[i] is the time of sample i.
type TrackSounding struct {
	Times         []time.Time
	Pressure      Samples // hPa
	Temperature   Samples // degC
	DewPoint      Samples // degC
	WindSpeed     Samples // m/s
	WindDirection Samples // degrees
	Lat           Samples
	Lon           Samples
	Alt           Samples // m
}

// Kind implements Data.
func (TrackSounding) Kind() Kind { return KindTrack }

// Len returns the sample count, or -1 if the arrays disagree.
func (t TrackSounding) Len() int {
	n := len(t.Times)
	for _, a := range []Samples{t.Pressure, t.Temperature, t.DewPoint, t.WindSpeed, t.WindDirection, t.Lat, t.Lon, t.Alt} {
		if len(a) != n {
			return -1
		}
	}
	return n
}

// GridSeries is 3-D model output: one GridStep per entry of Times.
type GridSeries struct {
	Times []time.Time
	Steps []GridStep
}

// Kind implements Data.
func (GridSeries) Kind() Kind { return KindGrid }

// GridStep is one time of a model grid. Columns lists the horizontal
// footprint; every 2-D array is indexed [column][level].
//
// Dew point comes from DewPoint when present, otherwise it is derived from
// RelativeHumidity (percent). U and V are optional but must be given
// together.
type GridStep struct {
	Columns []Point

	Vertical     [][]float64
	VerticalKind VerticalCoordinate
	VerticalUnit Unit

	Temperature      [][]float64
	TemperatureUnit  Unit
	DewPoint         [][]float64
	RelativeHumidity [][]float64
	U, V             [][]float64
	WindUnit         Unit
}

// HasWind reports whether the step carries both wind components.
func (s GridStep) HasWind() bool {
	return s.U != nil && s.V != nil
}
