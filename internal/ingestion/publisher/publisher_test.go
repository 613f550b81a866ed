package publisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/execution"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/service"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
)

type recordingWriter struct {
	events []kafka.Event
	err    error
}

func (w *recordingWriter) Publish(_ context.Context, e kafka.Event) error {
	if w.err != nil {
		return w.err
	}
	w.events = append(w.events, e)
	return nil
}

func (w *recordingWriter) PublishBatch(_ context.Context, es []kafka.Event) error {
	if w.err != nil {
		return w.err
	}
	w.events = append(w.events, es...)
	return nil
}

func newPublisher(w EventWriter) *Publisher {
	p := New(w)
	p.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return p
}

func TestPublishKeysByID(t *testing.T) {
	w := &recordingWriter{}
	p := newPublisher(w)
	resp, err := p.Publish(context.Background(), ingestion.AddEvent(service.Document{ID: 42, Text: "grey parrot"}))
	if err != nil {
		t.Fatal(err)
	}
	if resp.ID != 42 || resp.Op != ingestion.OpAdd || resp.Status != "ACCEPTED" {
		t.Errorf("resp = %+v", resp)
	}
	if len(w.events) != 1 || w.events[0].Key != "42" {
		t.Fatalf("events = %+v", w.events)
	}
	sent := w.events[0].Value.(ingestion.DocumentEvent)
	if sent.EmittedAt.IsZero() || sent.Text != "grey parrot" {
		t.Errorf("sent = %+v", sent)
	}
}

func TestPublishRejectsInvalid(t *testing.T) {
	w := &recordingWriter{}
	p := newPublisher(w)
	_, err := p.Publish(context.Background(), ingestion.DocumentEvent{Op: ingestion.OpAdd, ID: -1})
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("err = %v", err)
	}
	if len(w.events) != 0 {
		t.Error("invalid event was published")
	}
}

func TestPublishWriterFailure(t *testing.T) {
	boom := errors.New("broker down")
	p := newPublisher(&recordingWriter{err: boom})
	if _, err := p.Publish(context.Background(), ingestion.RemoveEvent(1, execution.Sequential)); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
}

func TestPublishBatchAllOrNothing(t *testing.T) {
	w := &recordingWriter{}
	p := newPublisher(w)
	err := p.PublishBatch(context.Background(), []ingestion.DocumentEvent{
		ingestion.AddEvent(service.Document{ID: 1, Text: "a"}),
		{Op: "bogus", ID: 2},
	})
	if err == nil || len(w.events) != 0 {
		t.Fatalf("err = %v, events = %d", err, len(w.events))
	}

	err = p.PublishBatch(context.Background(), []ingestion.DocumentEvent{
		ingestion.AddEvent(service.Document{ID: 1, Text: "a"}),
		ingestion.RemoveEvent(1, execution.Parallel),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(w.events) != 2 || w.events[0].Key != "1" || w.events[1].Key != "1" {
		t.Errorf("events = %+v", w.events)
	}
}
