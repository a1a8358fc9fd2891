package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/dock-health-etl/internal/config"
	"github.com/couchcryptid/dock-health-etl/internal/domain"
)

// Writer publishes run summaries to a Kafka topic.
// It implements pipeline.Loader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured summary topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaSummaryTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Load publishes one summary. Messages are keyed by severity class so all
// summaries for a class land on the same partition in run order.
func (w *Writer) Load(ctx context.Context, summary domain.Summary) error {
	msg, err := serializeToMessage(summary)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish summary: %w", err)
	}
	w.logger.Debug("summary published", "topic", w.writer.Topic, "run_id", summary.RunID)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Summary into a Kafka message.
func serializeToMessage(summary domain.Summary) (kafkago.Message, error) {
	data, err := json.Marshal(summary)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize summary: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(summary.Class),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "class", Value: []byte(summary.Class)},
			{Key: "column", Value: []byte(summary.Column())},
			{Key: "date", Value: []byte(summary.Date)},
			{Key: "run_id", Value: []byte(summary.RunID)},
			{Key: "processed_at", Value: []byte(summary.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}
