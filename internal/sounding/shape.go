package sounding

import "github.com/couchcryptid/storm-sounding-service/internal/domain"

// Shape selects the adapter that normalizes a sounding.
type Shape int

const (
	ShapeStation Shape = iota
	ShapeTrack
	ShapeSingleTimeGrid
	ShapeTimeSeriesGrid
)

func (s Shape) String() string {
	switch s {
	case ShapeStation:
		return "station"
	case ShapeTrack:
		return "track"
	case ShapeSingleTimeGrid:
		return "single_time_grid"
	case ShapeTimeSeriesGrid:
		return "time_series_grid"
	default:
		return "unknown"
	}
}

// Classify picks the adapter shape for data. It never fails: anything that is
// not a station, a track or a one-time grid is treated as a grid time series,
// and that adapter rejects what it cannot read.
func Classify(data domain.Data) Shape {
	if data == nil {
		return ShapeTimeSeriesGrid
	}
	switch data.Kind() {
	case domain.KindStation:
		return ShapeStation
	case domain.KindTrack:
		return ShapeTrack
	case domain.KindGrid:
		if g, ok := data.(domain.GridSeries); ok && len(g.Times) == 1 {
			return ShapeSingleTimeGrid
		}
	}
	return ShapeTimeSeriesGrid
}
