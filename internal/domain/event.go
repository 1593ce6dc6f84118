package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// RawSounding is the JSON envelope published by upstream collectors. Type
// selects which body is read.
type RawSounding struct {
	Type    Kind           `json:"type"`
	Station *RawStation    `json:"station,omitempty"`
	Track   *RawTrack      `json:"track,omitempty"`
	Grid    *RawGridSeries `json:"grid,omitempty"`
}

// RawStation is the wire form of a StationSounding.
type RawStation struct {
	Station       string    `json:"station,omitempty"`
	Lat           float64   `json:"lat"`
	Lon           float64   `json:"lon"`
	Elevation     float64   `json:"elevation,omitempty"`
	Time          time.Time `json:"time,omitzero"`
	Pressure      Samples   `json:"pressure"`
	Temperature   Samples   `json:"temperature"`
	DewPoint      Samples   `json:"dewpoint"`
	WindSpeed     Samples   `json:"wind_speed,omitempty"`
	WindDirection Samples   `json:"wind_direction,omitempty"`
}

// RawTrack is the wire form of a TrackSounding.
type RawTrack struct {
	Times         []time.Time `json:"times"`
	Pressure      Samples     `json:"pressure"`
	Temperature   Samples     `json:"temperature"`
	DewPoint      Samples     `json:"dewpoint"`
	WindSpeed     Samples     `json:"wind_speed"`
	WindDirection Samples     `json:"wind_direction"`
	Lat           Samples     `json:"lat"`
	Lon           Samples     `json:"lon"`
	Alt           Samples     `json:"alt"`
}

// RawGridSeries is the wire form of a GridSeries.
type RawGridSeries struct {
	Times []time.Time   `json:"times"`
	Steps []RawGridStep `json:"steps"`
}

// RawGridStep is the wire form of a GridStep.
type RawGridStep struct {
	Columns          []Point            `json:"columns"`
	Vertical         []Samples          `json:"vertical"`
	VerticalKind     VerticalCoordinate `json:"vertical_kind"`
	VerticalUnit     Unit               `json:"vertical_unit,omitempty"`
	Temperature      []Samples          `json:"temperature"`
	TemperatureUnit  Unit               `json:"temperature_unit,omitempty"`
	DewPoint         []Samples          `json:"dewpoint,omitempty"`
	RelativeHumidity []Samples          `json:"relative_humidity,omitempty"`
	U                []Samples          `json:"u,omitempty"`
	V                []Samples          `json:"v,omitempty"`
	WindUnit         Unit               `json:"wind_unit,omitempty"`
}

// ParseRawEvent decodes a RawEvent's value into a Data variant. A station
// sounding without a time takes the message timestamp.
func ParseRawEvent(raw RawEvent) (Data, error) {
	var rs RawSounding
	if err := json.Unmarshal(raw.Value, &rs); err != nil {
		return nil, fmt.Errorf("parse raw sounding: %w", err)
	}

	switch rs.Type {
	case KindStation:
		if rs.Station == nil {
			return nil, fmt.Errorf("%w: station message without station body", ErrInvalidArgument)
		}
		return rs.Station.toData(raw.Timestamp), nil
	case KindTrack:
		if rs.Track == nil {
			return nil, fmt.Errorf("%w: track message without track body", ErrInvalidArgument)
		}
		return rs.Track.toData(), nil
	case KindGrid:
		if rs.Grid == nil {
			return nil, fmt.Errorf("%w: grid message without grid body", ErrInvalidArgument)
		}
		return rs.Grid.toData(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedShape, rs.Type)
	}
}

func (r *RawStation) toData(fallback time.Time) StationSounding {
	t := r.Time
	if t.IsZero() {
		t = fallback
	}
	return StationSounding{
		Station:       r.Station,
		Location:      Point{Lat: r.Lat, Lon: r.Lon, Alt: r.Elevation},
		Time:          t.UTC(),
		Pressure:      r.Pressure,
		Temperature:   r.Temperature,
		DewPoint:      r.DewPoint,
		WindSpeed:     r.WindSpeed,
		WindDirection: r.WindDirection,
	}
}

func (r *RawTrack) toData() TrackSounding {
	times := make([]time.Time, len(r.Times))
	for i, t := range r.Times {
		times[i] = t.UTC()
	}
	return TrackSounding{
		Times:         times,
		Pressure:      r.Pressure,
		Temperature:   r.Temperature,
		DewPoint:      r.DewPoint,
		WindSpeed:     r.WindSpeed,
		WindDirection: r.WindDirection,
		Lat:           r.Lat,
		Lon:           r.Lon,
		Alt:           r.Alt,
	}
}

func (r *RawGridSeries) toData() GridSeries {
	g := GridSeries{
		Times: make([]time.Time, len(r.Times)),
		Steps: make([]GridStep, len(r.Steps)),
	}
	for i, t := range r.Times {
		g.Times[i] = t.UTC()
	}
	for i, s := range r.Steps {
		g.Steps[i] = GridStep{
			Columns:          s.Columns,
			Vertical:         matrix(s.Vertical),
			VerticalKind:     s.VerticalKind,
			VerticalUnit:     s.VerticalUnit,
			Temperature:      matrix(s.Temperature),
			TemperatureUnit:  s.TemperatureUnit,
			DewPoint:         matrix(s.DewPoint),
			RelativeHumidity: matrix(s.RelativeHumidity),
			U:                matrix(s.U),
			V:                matrix(s.V),
			WindUnit:         s.WindUnit,
		}
	}
	return g
}

func matrix(rows []Samples) [][]float64 {
	if rows == nil {
		return nil
	}
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}
