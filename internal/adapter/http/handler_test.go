package http_test

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/storm-sounding-service/internal/adapter/http"
	"github.com/couchcryptid/storm-sounding-service/internal/domain"
	"github.com/couchcryptid/storm-sounding-service/internal/observability"
	"github.com/couchcryptid/storm-sounding-service/internal/sounding"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	t0 = time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)
	t1 = t0.Add(6 * time.Hour)
)

func init() {
	gin.SetMode(gin.TestMode)
}

// twoColumnGrid is a two-time grid over two columns, 5 degC apart.
func twoColumnGrid() domain.GridSeries {
	levels := []float64{1000, 850}
	step := domain.GridStep{
		Columns:      []domain.Point{{Lat: 35, Lon: -97}, {Lat: 40, Lon: -97}},
		Vertical:     [][]float64{levels, levels},
		VerticalKind: domain.CoordPressure,
		Temperature:  [][]float64{{25, 15}, {20, 10}},
		DewPoint:     [][]float64{{20, math.NaN()}, {15, 5}},
	}
	return domain.GridSeries{Times: []time.Time{t0, t1}, Steps: []domain.GridStep{step, step}}
}

func newTestAPI(t *testing.T, data domain.Data) http.Handler {
	t.Helper()
	snap := sounding.NewSnapshot()
	d := sounding.NewDispatcher(snap, slog.Default(), observability.NewMetricsForTesting())
	if data != nil {
		require.NoError(t, d.SetData(data))
	}
	return httpadapter.NewRouter(httpadapter.NewHandler(d, snap), nil, slog.Default())
}

func do(api http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	api.ServeHTTP(rec, req)
	return rec
}

func currentSounding(t *testing.T, api http.Handler) map[string]any {
	t.Helper()
	rec := do(api, http.MethodGet, "/v1/sounding", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestGetSounding_NoData(t *testing.T) {
	rec := do(newTestAPI(t, nil), http.MethodGet, "/v1/sounding", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetSounding(t *testing.T) {
	body := currentSounding(t, newTestAPI(t, twoColumnGrid()))

	assert.Equal(t, []any{"2026-05-20T00:00:00Z", "2026-05-20T06:00:00Z"}, body["time_axis"])
	assert.InDelta(t, 0, body["time_index"], 0)
	assert.Equal(t, map[string]any{"lat": 35.0, "lon": -97.0}, body["location"])
	assert.Len(t, body["location_axis"], 2)

	profiles := body["profiles"].(map[string]any)
	dew := profiles["dewpoint"].([]any)[0].(map[string]any)
	assert.Equal(t, []any{20.0, nil}, dew["values"], "missing values are null")
	assert.NotContains(t, profiles, "wind")
}

func TestPutLocation(t *testing.T) {
	api := newTestAPI(t, twoColumnGrid())

	rec := do(api, http.MethodPut, "/v1/sounding/location", `{"lat":39.5,"lon":-97}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	body := currentSounding(t, api)
	assert.Equal(t, map[string]any{"lat": 39.5, "lon": -97.0}, body["location"])
	temp := body["profiles"].(map[string]any)["temperature"].([]any)[0].(map[string]any)
	assert.Equal(t, []any{20.0, 10.0}, temp["values"])
}

func TestPutLocation_Invalid(t *testing.T) {
	api := newTestAPI(t, twoColumnGrid())

	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"lat":`},
		{"missing lon", `{"lat":35}`},
		{"out of range", `{"lat":135,"lon":0}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(api, http.MethodPut, "/v1/sounding/location", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "error")
		})
	}
}

func TestPutTime(t *testing.T) {
	api := newTestAPI(t, twoColumnGrid())

	rec := do(api, http.MethodPut, "/v1/sounding/time", `{"time":"2026-05-20T05:00:00Z"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	body := currentSounding(t, api)
	assert.InDelta(t, 1, body["time_index"], 0)
}

func TestPutTime_Invalid(t *testing.T) {
	api := newTestAPI(t, twoColumnGrid())

	for _, body := range []string{`{}`, `{"time":"yesterday"}`, `{"time":"0001-01-01T00:00:00Z"}`} {
		rec := do(api, http.MethodPut, "/v1/sounding/time", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestCORSAllowedOrigin(t *testing.T) {
	snap := sounding.NewSnapshot()
	d := sounding.NewDispatcher(snap, slog.Default(), observability.NewMetricsForTesting())
	api := httpadapter.NewRouter(httpadapter.NewHandler(d, snap), []string{"https://viewer.example"}, slog.Default())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/v1/sounding/location", nil)
	req.Header.Set("Origin", "https://viewer.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	api.ServeHTTP(rec, req)

	assert.Equal(t, "https://viewer.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
