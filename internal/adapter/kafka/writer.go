package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/quake-report/internal/config"
	"github.com/couchcryptid/quake-report/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes loaded earthquake batches to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch publishes one message per earthquake in a single WriteMessages
// call. Events hash to partitions by event id.
func (w *Writer) LoadBatch(ctx context.Context, quakes []domain.Earthquake, fetchedAt time.Time) error {
	if len(quakes) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(quakes))
	for i := range quakes {
		msg, err := serializeToMessage(quakes[i], fetchedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d earthquakes: %w", len(msgs), err)
	}
	w.logger.Debug("published earthquake batch", "topic", w.writer.Topic, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// message is the published value: the record plus its color bucket.
type message struct {
	domain.Earthquake
	ColorBucket domain.ColorBucket `json:"color_bucket"`
	FetchedAt   time.Time          `json:"fetched_at"`
}

// serializeToMessage marshals an Earthquake into a Kafka message.
func serializeToMessage(q domain.Earthquake, fetchedAt time.Time) (kafkago.Message, error) {
	bucket := domain.MagnitudeColorBucket(q.Magnitude)
	data, err := json.Marshal(message{Earthquake: q, ColorBucket: bucket, FetchedAt: fetchedAt.UTC()})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize earthquake: %w", err)
	}
	key := q.EventID()
	if key == "" {
		key = q.URL
	}
	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Time:  q.OccurredAt(),
		Headers: []kafkago.Header{
			{Key: "magnitude_bucket", Value: []byte(bucket.String())},
			{Key: "fetched_at", Value: []byte(fetchedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
