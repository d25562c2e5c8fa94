// Package kafka publishes ranked route plans for downstream analytics.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/safepath-navigator/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces route plan messages to a Kafka topic.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the route plan topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish writes one plan, keyed by plan ID.
func (w *Writer) Publish(ctx context.Context, plan domain.RoutePlan) error {
	msg, err := serializeToMessage(plan)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish route plan %s: %w", plan.ID, err)
	}
	w.logger.Debug("route plan published", "plan_id", plan.ID, "routes", len(plan.Routes))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a RoutePlan into a Kafka message.
func serializeToMessage(plan domain.RoutePlan) (kafkago.Message, error) {
	data, err := json.Marshal(plan)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize route plan: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(plan.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "scored", Value: []byte(strconv.FormatBool(plan.Scored()))},
			{Key: "created_at", Value: []byte(plan.CreatedAt.Format(time.RFC3339))},
		},
	}, nil
}
