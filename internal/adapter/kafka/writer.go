package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/snowpack-swe/internal/config"
	"github.com/couchcryptid/snowpack-swe/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes one message per site summary to a Kafka topic, keyed by
// site identifier. The combined all-sites summary is published last.
// It implements pipeline.Loader.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured summary topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

func (w *Writer) Name() string { return "kafka" }

// Load serializes every summary and publishes them in a single
// WriteMessages call. It returns the number of messages written.
func (w *Writer) Load(ctx context.Context, report *domain.Report) (int, error) {
	summaries := make([]domain.SiteSummary, 0, len(report.Sites)+1)
	summaries = append(summaries, report.Sites...)
	summaries = append(summaries, report.AllSites)

	msgs := make([]kafkago.Message, len(summaries))
	for i := range summaries {
		msg, err := serializeToMessage(summaries[i], report.GeneratedAt)
		if err != nil {
			return 0, err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return 0, fmt.Errorf("publish summaries: %w", err)
	}
	w.logger.Debug("summaries published", "messages", len(msgs))
	return len(msgs), nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a SiteSummary into a Kafka message.
func serializeToMessage(s domain.SiteSummary, generatedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize site summary: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(s.SiteID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "series", Value: []byte("yearly,monthly")},
			{Key: "generated_at", Value: []byte(generatedAt.Format(time.RFC3339))},
		},
	}, nil
}
