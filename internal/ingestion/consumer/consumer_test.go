package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/execution"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/service"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
)

func newService(t *testing.T) (*service.Service, *metrics.Metrics, *prometheus.Registry) {
	t.Helper()
	e, err := indexer.NewEngine([]string{"and"}, config.EngineConfig{})
	if err != nil {
		t.Fatal(err)
	}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	return service.New(e, service.Options{Metrics: m}), m, reg
}

func message(t *testing.T, event ingestion.DocumentEvent) []byte {
	t.Helper()
	b, err := json.Marshal(event)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func counter(t *testing.T, reg *prometheus.Registry, op, outcome string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range families {
		if f.GetName() != "ingest_events_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			labels := map[string]string{}
			for _, l := range metric.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["op"] == op && labels["status"] == outcome {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestHandleMessageAppliesEvents(t *testing.T) {
	svc, m, reg := newService(t)
	handle := HandleMessage(svc, m)
	ctx := context.Background()

	for _, e := range []ingestion.DocumentEvent{
		ingestion.AddEvent(service.Document{ID: 1, Text: "white cat and fashionable collar", Ratings: []int{8, -3}}),
		ingestion.AddEvent(service.Document{ID: 2, Text: "fluffy cat fluffy tail"}),
		ingestion.RemoveEvent(1, execution.Parallel),
	} {
		if err := handle(ctx, []byte("k"), message(t, e)); err != nil {
			t.Fatalf("handle %+v: %v", e, err)
		}
	}
	if !reflect.DeepEqual(svc.DocumentIDs(), []int{2}) {
		t.Errorf("ids = %v", svc.DocumentIDs())
	}
	if got := counter(t, reg, "add", OutcomeApplied); got != 2 {
		t.Errorf("applied adds = %v", got)
	}
	if got := counter(t, reg, "remove", OutcomeApplied); got != 1 {
		t.Errorf("applied removes = %v", got)
	}
}

func TestHandleMessageAcknowledgesRejects(t *testing.T) {
	svc, m, reg := newService(t)
	handle := HandleMessage(svc, m)
	ctx := context.Background()

	add := message(t, ingestion.AddEvent(service.Document{ID: 5, Text: "cat"}))
	for name, value := range map[string][]byte{
		"first add":     add,
		"duplicate id":  add,
		"negative id":   message(t, ingestion.DocumentEvent{Op: ingestion.OpAdd, ID: -1, Text: "x"}),
		"bad op":        message(t, ingestion.DocumentEvent{Op: "merge", ID: 9}),
		"not json":      []byte("{"),
		"unknown id rm": message(t, ingestion.RemoveEvent(77, execution.Sequential)),
	} {
		if err := handle(ctx, nil, value); err != nil {
			t.Errorf("%s: handler must not fail, got %v", name, err)
		}
	}
	if svc.DocumentCount() != 1 {
		t.Errorf("count = %d", svc.DocumentCount())
	}
	if got := counter(t, reg, "add", OutcomeRejected); got != 2 {
		t.Errorf("rejected adds = %v", got)
	}
	if got := counter(t, reg, "remove", OutcomeIgnored); got != 1 {
		t.Errorf("ignored removes = %v", got)
	}
	if got := counter(t, reg, "unknown", OutcomeRejected); got != 1 {
		t.Errorf("undecodable = %v", got)
	}
}

type failingApplier struct{ err error }

func (f failingApplier) AddDocument(context.Context, service.Document) error { return f.err }
func (f failingApplier) RemoveDocument(context.Context, int, execution.Mode) bool {
	return false
}

func TestHandleMessageReturnsTransientErrors(t *testing.T) {
	boom := errors.New("backend unavailable")
	handle := HandleMessage(failingApplier{err: boom}, metrics.New(nil))
	err := handle(context.Background(), nil, message(t, ingestion.AddEvent(service.Document{ID: 1, Text: "x"})))
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped %v", err, boom)
	}
}
