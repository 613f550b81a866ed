// Package publisher validates document events and publishes them to Kafka,
// keyed by document id so that every event for one document lands on the
// same partition in emission order.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
)

// EventWriter is satisfied by *kafka.Producer.
type EventWriter interface {
	Publish(ctx context.Context, event kafka.Event) error
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// Publisher validates events before handing them to Kafka.
type Publisher struct {
	writer EventWriter
	logger *slog.Logger
	now    func() time.Time
}

// New returns a publisher writing to writer.
func New(writer EventWriter) *Publisher {
	return &Publisher{
		writer: writer,
		logger: slog.Default().With("component", "publisher"),
		now:    time.Now,
	}
}

// Publish validates event, stamps it and writes it to Kafka.
func (p *Publisher) Publish(ctx context.Context, event ingestion.DocumentEvent) (*ingestion.IngestResponse, error) {
	if err := validator.ValidateEvent(&event); err != nil {
		return nil, err
	}
	event.EmittedAt = p.now().UTC()
	if err := p.writer.Publish(ctx, p.wrap(event)); err != nil {
		return nil, fmt.Errorf("publishing %s event for document %d: %w", event.Op, event.ID, err)
	}
	p.logger.Debug("event published", "op", event.Op, "doc_id", event.ID)
	return &ingestion.IngestResponse{ID: event.ID, Op: event.Op, Status: "ACCEPTED"}, nil
}

// PublishBatch validates every event first; a single invalid event fails
// the batch before anything is sent.
func (p *Publisher) PublishBatch(ctx context.Context, events []ingestion.DocumentEvent) error {
	out := make([]kafka.Event, 0, len(events))
	now := p.now().UTC()
	for i, event := range events {
		if err := validator.ValidateEvent(&event); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
		event.EmittedAt = now
		out = append(out, p.wrap(event))
	}
	if err := p.writer.PublishBatch(ctx, out); err != nil {
		return fmt.Errorf("publishing %d events: %w", len(out), err)
	}
	p.logger.Info("batch published", "count", len(out))
	return nil
}

func (p *Publisher) wrap(event ingestion.DocumentEvent) kafka.Event {
	return kafka.Event{
		Key:   strconv.Itoa(event.ID),
		Value: event,
	}
}
