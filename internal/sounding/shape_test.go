package sounding

import (
	"testing"

	"github.com/couchcryptid/storm-sounding-service/internal/domain"
	"github.com/stretchr/testify/assert"
)

type otherData struct{}

func (otherData) Kind() domain.Kind { return "lidar" }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		data domain.Data
		want Shape
	}{
		{"station", stationSounding(15), ShapeStation},
		{"track", trackSounding(), ShapeTrack},
		{"single time grid", gridSeries(t0), ShapeSingleTimeGrid},
		{"time series grid", gridSeries(t0, t1), ShapeTimeSeriesGrid},
		{"empty grid", domain.GridSeries{}, ShapeTimeSeriesGrid},
		{"unknown kind falls back", otherData{}, ShapeTimeSeriesGrid},
		{"nil falls back", nil, ShapeTimeSeriesGrid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.data))
		})
	}
}

func TestShapeString(t *testing.T) {
	assert.Equal(t, "station", ShapeStation.String())
	assert.Equal(t, "track", ShapeTrack.String())
	assert.Equal(t, "single_time_grid", ShapeSingleTimeGrid.String())
	assert.Equal(t, "time_series_grid", ShapeTimeSeriesGrid.String())
	assert.Equal(t, "unknown", Shape(42).String())
}
