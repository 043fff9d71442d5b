// Package observe mirrors run events to a Kafka observe topic so
// external dashboards can follow live runs.
package observe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/workforcehq/workforce/internal/session"
)

// TraceEnvelope is the wire format for observe-topic messages.
type TraceEnvelope struct {
	Type      string        `json:"type"`
	RunID     string        `json:"run_id"`
	Timestamp time.Time     `json:"timestamp"`
	Event     session.Event `json:"event"`
}

// TraceTopic names the observe topic for a company.
func TraceTopic(prefix, companyID string) string {
	if prefix == "" {
		prefix = "workforce"
	}
	return fmt.Sprintf("%s.%s.observe.traces", prefix, companyID)
}

// KafkaPublisher implements session.Observer over a kafka.Writer.
// Publishing is fire-and-forget; a broker outage never stalls a run.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher for one company's observe topic.
func NewKafkaPublisher(brokers, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(strings.Split(brokers, ",")...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireNone,
			Async:        true,
		},
	}
}

// ObserveEvent publishes one run event keyed by run id, preserving
// per-run ordering within a partition.
func (p *KafkaPublisher) ObserveEvent(runID string, ev session.Event) {
	env := TraceEnvelope{
		Type:      "trace",
		RunID:     runID,
		Timestamp: time.Now(),
		Event:     ev,
	}
	value, err := json.Marshal(env)
	if err != nil {
		slog.Warn("Trace envelope encode failed", "run_id", runID, "error", err)
		return
	}
	if err := p.writer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(runID),
		Value: value,
	}); err != nil {
		slog.Warn("Trace publish failed", "run_id", runID, "error", err)
	}
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
