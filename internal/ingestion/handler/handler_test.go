package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
)

type stubWriter struct {
	published []kafka.Event
	err       error
}

func (s *stubWriter) Publish(_ context.Context, e kafka.Event) error {
	if s.err != nil {
		return s.err
	}
	s.published = append(s.published, e)
	return nil
}

func (s *stubWriter) PublishBatch(ctx context.Context, es []kafka.Event) error {
	for _, e := range es {
		if err := s.Publish(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func serve(t *testing.T, w *stubWriter) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	New(publisher.New(w)).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	return resp, out
}

func TestIngestAccepted(t *testing.T) {
	w := &stubWriter{}
	srv := serve(t, w)
	resp, out := post(t, srv.URL+"/api/v1/ingest", `{"op":"add","id":3,"text":"well groomed dog","status":"BANNED"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown status text: code = %d", resp.StatusCode)
	}

	resp, out = post(t, srv.URL+"/api/v1/ingest", `{"op":"add","id":3,"text":"well groomed dog","status":"ACTIVE","ratings":[5]}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("code = %d, body %v", resp.StatusCode, out)
	}
	if out["status"] != "ACCEPTED" || out["id"] != float64(3) {
		t.Errorf("body = %v", out)
	}
	if len(w.published) != 1 || w.published[0].Key != "3" {
		t.Errorf("published = %+v", w.published)
	}
}

func TestIngestValidation(t *testing.T) {
	srv := serve(t, &stubWriter{})
	resp, out := post(t, srv.URL+"/api/v1/ingest", `{"op":"remove","id":-4,"mode":"fast"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("code = %d", resp.StatusCode)
	}
	fields, _ := out["fields"].(map[string]any)
	if _, ok := fields["id"]; !ok {
		t.Errorf("fields = %v", fields)
	}
	if _, ok := fields["mode"]; !ok {
		t.Errorf("fields = %v", fields)
	}

	resp, _ = post(t, srv.URL+"/api/v1/ingest", `not json`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad json: code = %d", resp.StatusCode)
	}
}

func TestIngestBrokerDown(t *testing.T) {
	srv := serve(t, &stubWriter{err: errors.New("no brokers")})
	resp, _ := post(t, srv.URL+"/api/v1/ingest", `{"op":"remove","id":4}`)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("code = %d", resp.StatusCode)
	}
}
