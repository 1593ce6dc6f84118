package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/storm-sounding-service/internal/domain"
)

// SoundingTransformer implements Transformer by decoding the wire JSON.
type SoundingTransformer struct {
	logger *slog.Logger
}

// NewTransformer creates a SoundingTransformer.
func NewTransformer(logger *slog.Logger) *SoundingTransformer {
	return &SoundingTransformer{logger: logger}
}

func (t *SoundingTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.Data, error) {
	data, err := domain.ParseRawEvent(raw)
	if err != nil {
		return nil, err
	}
	t.logger.Debug("decoded sounding", "kind", data.Kind(), "key", string(raw.Key))
	return data, nil
}

// DataSetter accepts a new sounding. It is implemented by sounding.Dispatcher.
type DataSetter interface {
	SetData(data domain.Data) error
}

// DispatchLoader implements Loader by handing each sounding to a DataSetter.
type DispatchLoader struct {
	target DataSetter
}

// NewDispatchLoader creates a DispatchLoader for target.
func NewDispatchLoader(target DataSetter) *DispatchLoader {
	return &DispatchLoader{target: target}
}

func (l *DispatchLoader) Load(ctx context.Context, data domain.Data) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.target.SetData(data)
}
