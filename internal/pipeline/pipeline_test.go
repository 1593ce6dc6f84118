package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/storm-sounding-service/internal/domain"
	"github.com/couchcryptid/storm-sounding-service/internal/observability"
	"github.com/couchcryptid/storm-sounding-service/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockExtractor struct {
	events []domain.RawEvent
	calls  atomic.Int64
	err    error
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error) {
	if m.calls.Add(1) == 1 {
		if m.err != nil {
			return nil, m.err
		}
		if len(m.events) > 0 {
			n := min(batchSize, len(m.events))
			return m.events[:n], nil
		}
	}
	// block until context cancelled to simulate waiting for messages
	<-ctx.Done()
	return nil, ctx.Err()
}

type mockSetter struct {
	mu     sync.Mutex
	loaded []domain.Data
	err    error
}

func (m *mockSetter) SetData(data domain.Data) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.loaded = append(m.loaded, data)
	return nil
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

func newPipeline(ext pipeline.BatchExtractor, setter *mockSetter, metrics *observability.Metrics) *pipeline.Pipeline {
	return pipeline.New(ext, pipeline.NewTransformer(slog.Default()), pipeline.NewDispatchLoader(setter),
		slog.Default(), metrics, 10)
}

func runBriefly(t *testing.T, p *pipeline.Pipeline) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	require.NoError(t, p.Run(ctx))
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	ext := &mockExtractor{events: []domain.RawEvent{
		makeRawEvent(t, stationMessage("OUN")),
		makeRawEvent(t, stationMessage("DNR")),
	}}
	setter := &mockSetter{}
	metrics := newTestMetrics()

	runBriefly(t, newPipeline(ext, setter, metrics))

	require.Len(t, setter.loaded, 2)
	assert.Equal(t, "OUN", setter.loaded[0].(domain.StationSounding).Station)
	assert.Equal(t, "DNR", setter.loaded[1].(domain.StationSounding).Station)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.MessagesConsumed), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.PipelineRunning), 0)
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{} // no events, will block
	setter := &mockSetter{}

	p := newPipeline(ext, setter, newTestMetrics())

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, setter.loaded)
}

func TestPipeline_Run_DecodeErrorCommitsAndSkips(t *testing.T) {
	var commits atomic.Int32
	bad := domain.RawEvent{Value: []byte("not json"), Commit: func(context.Context) error {
		commits.Add(1)
		return nil
	}}
	good := makeRawEvent(t, stationMessage("OUN"))
	good.Commit = bad.Commit

	ext := &mockExtractor{events: []domain.RawEvent{bad, good}}
	setter := &mockSetter{}
	metrics := newTestMetrics()

	runBriefly(t, newPipeline(ext, setter, metrics))

	assert.Len(t, setter.loaded, 1)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.DecodeErrors), 0)
	assert.Equal(t, int32(2), commits.Load())
}

func TestPipeline_Run_RejectedSoundingIsCommitted(t *testing.T) {
	commitCalled := false
	raw := makeRawEvent(t, stationMessage("OUN"))
	raw.Commit = func(_ context.Context) error {
		commitCalled = true
		return nil
	}

	ext := &mockExtractor{events: []domain.RawEvent{raw}}
	setter := &mockSetter{err: domain.ErrInsufficientData}

	runBriefly(t, newPipeline(ext, setter, newTestMetrics()))

	assert.True(t, commitCalled)
}

func TestPipeline_Run_ExtractErrorBacksOff(t *testing.T) {
	ext := &mockExtractor{err: errors.New("broker unavailable")}
	setter := &mockSetter{}

	runBriefly(t, newPipeline(ext, setter, newTestMetrics()))

	assert.GreaterOrEqual(t, ext.calls.Load(), int64(2), "extraction is retried after the backoff")
	assert.Empty(t, setter.loaded)
}

func TestSoundingTransformer_Transform(t *testing.T) {
	tfm := pipeline.NewTransformer(slog.Default())

	data, err := tfm.Transform(context.Background(), makeRawEvent(t, stationMessage("OUN")))
	require.NoError(t, err)
	assert.Equal(t, domain.KindStation, data.Kind())

	_, err = tfm.Transform(context.Background(), makeRawEvent(t, map[string]any{"type": "profiler"}))
	require.ErrorIs(t, err, domain.ErrUnsupportedShape)
}

func TestDispatchLoader_CancelledContext(t *testing.T) {
	setter := &mockSetter{}
	ldr := pipeline.NewDispatchLoader(setter)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, ldr.Load(ctx, domain.StationSounding{}), context.Canceled)
	assert.Empty(t, setter.loaded)
}

// --- helpers ---

func stationMessage(station string) map[string]any {
	return map[string]any{
		"type": "station",
		"station": map[string]any{
			"station":     station,
			"lat":         35.18,
			"lon":         -97.44,
			"time":        "2026-05-20T00:00:00Z",
			"pressure":    []any{1000, 850, nil, 700},
			"temperature": []any{25, 15, 10, 5},
			"dewpoint":    []any{20, 10, nil, -5},
		},
	}
}

func makeRawEvent(t *testing.T, msg map[string]any) domain.RawEvent {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	return domain.RawEvent{
		Key:   []byte("sounding"),
		Value: data,
		Topic: "raw-soundings",
	}
}
