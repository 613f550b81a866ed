// Package consumer applies document events from Kafka to the search service.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/execution"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/service"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
)

// Applier is the part of *service.Service events are applied to.
type Applier interface {
	AddDocument(ctx context.Context, doc service.Document) error
	RemoveDocument(ctx context.Context, id int, mode execution.Mode) bool
}

// Outcome labels for metrics.IngestEventsTotal.
const (
	OutcomeApplied  = "applied"
	OutcomeIgnored  = "ignored"
	OutcomeRejected = "rejected"
)

// Apply validates and applies one event. It returns the outcome label and,
// for rejected events, the reason.
func Apply(ctx context.Context, applier Applier, event ingestion.DocumentEvent) (string, error) {
	if err := validator.ValidateEvent(&event); err != nil {
		return OutcomeRejected, err
	}
	switch event.Op {
	case ingestion.OpAdd:
		if err := applier.AddDocument(ctx, event.Document()); err != nil {
			return OutcomeRejected, err
		}
		return OutcomeApplied, nil
	case ingestion.OpRemove:
		mode, _ := execution.ParseMode(event.Mode)
		if !applier.RemoveDocument(ctx, event.ID, mode) {
			return OutcomeIgnored, nil
		}
		return OutcomeApplied, nil
	}
	return OutcomeRejected, fmt.Errorf("unhandled op %q", event.Op)
}

// HandleMessage returns a kafka.MessageHandler applying every event to
// applier. Events the index refuses (bad shape, duplicate or negative id)
// are logged and acknowledged, since redelivering them cannot succeed.
func HandleMessage(applier Applier, m *metrics.Metrics) kafka.MessageHandler {
	logger := slog.Default().With("component", "event-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ingestion.DocumentEvent](value)
		if err != nil {
			logger.Error("failed to decode document event",
				"error", err,
				"key", string(key),
			)
			m.IngestEventsTotal.WithLabelValues("unknown", OutcomeRejected).Inc()
			return nil
		}

		outcome, err := Apply(ctx, applier, event)
		m.IngestEventsTotal.WithLabelValues(string(event.Op), outcome).Inc()
		if err != nil {
			if isPermanent(err) {
				logger.Warn("document event rejected",
					"op", event.Op,
					"doc_id", event.ID,
					"error", err,
				)
				return nil
			}
			return fmt.Errorf("applying %s event for document %d: %w", event.Op, event.ID, err)
		}
		logger.Debug("document event applied",
			"op", event.Op,
			"doc_id", event.ID,
			"outcome", outcome,
		)
		return nil
	}
}

func isPermanent(err error) bool {
	return errors.Is(err, apperrors.ErrInvalidInput) ||
		errors.Is(err, apperrors.ErrInvalidDocumentID)
}
