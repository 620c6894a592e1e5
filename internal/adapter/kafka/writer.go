package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/tsg-reader/internal/config"
	"github.com/couchcryptid/tsg-reader/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes TSG records to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer    *kafkago.Writer
	sessionID string
	logger    *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic. sessionID is
// attached to every message so consumers can tell reader runs apart.
func NewWriter(cfg *config.Config, sessionID string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, sessionID: sessionID, logger: logger}
}

// LoadBatch serializes and publishes the records in a single WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(records[i], w.sessionID)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d records to %s: %w", len(msgs), w.writer.Topic, err)
	}
	w.logger.Debug("records published", "topic", w.writer.Topic, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Record into a Kafka message keyed by scan
// number, or by capture time when the line carried no scan number.
func serializeToMessage(rec domain.Record, sessionID string) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize tsg record: %w", err)
	}
	return kafkago.Message{
		Key:   messageKey(rec),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "format", Value: []byte(rec.Format.String())},
			{Key: "captured_at", Value: []byte(rec.DatetimeUTC.Format(time.RFC3339))},
			{Key: "session_id", Value: []byte(sessionID)},
		},
	}, nil
}

func messageKey(rec domain.Record) []byte {
	if rec.ScanNo != nil {
		return []byte(strconv.FormatInt(*rec.ScanNo, 10))
	}
	return []byte(strconv.FormatInt(rec.DatetimeUTC.Unix(), 10))
}
