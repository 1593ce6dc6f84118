package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/storm-sounding-service/internal/config"
	"github.com/couchcryptid/storm-sounding-service/internal/domain"
	"github.com/couchcryptid/storm-sounding-service/internal/sounding"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the part of kafkago.Writer the notifier uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// NotificationWriter publishes every delivered notification to the sink
// topic, keyed by channel name. It implements sounding.Listener.
type NotificationWriter struct {
	writer  messageWriter
	logger  *slog.Logger
	timeout time.Duration
}

// NewNotificationWriter creates an asynchronous producer for the configured
// sink topic. Delivery failures are logged from the completion callback.
func NewNotificationWriter(cfg *config.Config, logger *slog.Logger) *NotificationWriter {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		Async:        true,
		Completion: func(msgs []kafkago.Message, err error) {
			if err != nil {
				logger.Error("publish notifications failed", "error", err, "count", len(msgs))
			}
		},
	}
	return &NotificationWriter{writer: w, logger: logger, timeout: 5 * time.Second}
}

func (w *NotificationWriter) OnTimeIndex(index int) {
	w.publish(sounding.ChannelTimeIndex, index)
}

func (w *NotificationWriter) OnTimeAxis(times []time.Time) {
	w.publish(sounding.ChannelTimeAxis, times)
}

func (w *NotificationWriter) OnLocation(p domain.Point) {
	w.publish(sounding.ChannelLocation, p)
}

func (w *NotificationWriter) OnLocationAxis(points []domain.Point) {
	w.publish(sounding.ChannelLocationAxis, points)
}

func (w *NotificationWriter) OnProfiles(profiles domain.ProfileSet) {
	w.publish(sounding.ChannelProfiles, profiles)
}

func (w *NotificationWriter) publish(ch sounding.Channel, payload any) {
	msg, err := serializeNotification(ch, payload, domain.Now())
	if err != nil {
		w.logger.Error("serialize notification", "error", err, "channel", ch)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		w.logger.Error("publish notification", "error", err, "channel", ch)
	}
}

func (w *NotificationWriter) Close() error {
	return w.writer.Close()
}

// serializeNotification marshals one channel value into a Kafka message.
func serializeNotification(ch sounding.Channel, payload any, emittedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize %s notification: %w", ch, err)
	}
	return kafkago.Message{
		Key:   []byte(ch),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "channel", Value: []byte(ch)},
			{Key: "emitted_at", Value: []byte(emittedAt.Format(time.RFC3339))},
		},
	}, nil
}
