package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/execution"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/service"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
)

func newServer(t *testing.T) (*httptest.Server, *service.Service) {
	t.Helper()
	e, err := indexer.NewEngineFromText("and with", config.EngineConfig{})
	if err != nil {
		t.Fatal(err)
	}
	svc := service.New(e, service.Options{WindowSize: 100, BatchConcurrency: 2})
	for _, d := range []service.Document{
		{ID: 1, Text: "funny pet and nasty rat", Ratings: []int{7, 2, 7}},
		{ID: 2, Text: "funny pet with curly hair", Ratings: []int{1, 2}},
		{ID: 3, Text: "funny pet with curly hair", Ratings: []int{1, 2}},
		{ID: 4, Text: "curly dog", Status: index.StatusIrrelevant},
	} {
		if err := svc.AddDocument(context.Background(), d); err != nil {
			t.Fatal(err)
		}
	}
	mux := http.NewServeMux()
	New(svc, 2).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, svc
}

func do(t *testing.T, method, url, body string, out any) int {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decoding: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

type searchResponse struct {
	Results []struct {
		ID        int     `json:"id"`
		Relevance float64 `json:"relevance"`
		Rating    int     `json:"rating"`
	} `json:"results"`
	Error string `json:"error"`
}

func TestSearch(t *testing.T) {
	srv, _ := newServer(t)

	var res searchResponse
	if code := do(t, http.MethodGet, srv.URL+"/api/v1/search?q=funny+pet", "", &res); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	var ids []int
	for _, d := range res.Results {
		ids = append(ids, d.ID)
	}
	if !reflect.DeepEqual(ids, []int{1, 2, 3}) {
		t.Errorf("ids = %v", ids)
	}
	if res.Results[0].Rating != 5 {
		t.Errorf("rating = %d", res.Results[0].Rating)
	}

	res = searchResponse{}
	do(t, http.MethodGet, srv.URL+"/api/v1/search?q=curly&status=irrelevant&mode=par", "", &res)
	if len(res.Results) != 1 || res.Results[0].ID != 4 {
		t.Errorf("status filter: %+v", res.Results)
	}
}

func TestSearchBadRequests(t *testing.T) {
	srv, _ := newServer(t)
	for _, url := range []string{
		"/api/v1/search?q=cat+--dog",
		"/api/v1/search?q=cat&mode=turbo",
		"/api/v1/search?q=cat&status=BANNED",
	} {
		var res searchResponse
		if code := do(t, http.MethodGet, srv.URL+url, "", &res); code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", url, code)
		}
		if res.Error == "" {
			t.Errorf("%s: missing error message", url)
		}
	}
}

func TestDocumentLifecycle(t *testing.T) {
	srv, svc := newServer(t)

	body := `{"id": 10, "text": "sleek cat", "status": "ACTIVE", "ratings": [4, 5]}`
	if code := do(t, http.MethodPost, srv.URL+"/api/v1/documents", body, nil); code != http.StatusCreated {
		t.Fatalf("add: status = %d", code)
	}
	if code := do(t, http.MethodPost, srv.URL+"/api/v1/documents", body, nil); code != http.StatusBadRequest {
		t.Errorf("duplicate add: status = %d, want 400", code)
	}
	bad := `{"id": 11, "text": "bad\u0001word"}`
	if code := do(t, http.MethodPost, srv.URL+"/api/v1/documents", bad, nil); code != http.StatusBadRequest {
		t.Errorf("invalid text: status = %d, want 400", code)
	}

	var freqs struct {
		Frequencies map[string]float64 `json:"frequencies"`
	}
	do(t, http.MethodGet, srv.URL+"/api/v1/documents/10/frequencies", "", &freqs)
	if !reflect.DeepEqual(freqs.Frequencies, map[string]float64{"sleek": 0.5, "cat": 0.5}) {
		t.Errorf("frequencies = %v", freqs.Frequencies)
	}

	var match struct {
		Terms  []string     `json:"terms"`
		Status index.Status `json:"status"`
	}
	do(t, http.MethodGet, srv.URL+"/api/v1/documents/10/match?q=cat+dog", "", &match)
	if !reflect.DeepEqual(match.Terms, []string{"cat"}) || match.Status != index.StatusActive {
		t.Errorf("match = %+v", match)
	}
	if code := do(t, http.MethodGet, srv.URL+"/api/v1/documents/99/match?q=cat", "", nil); code != http.StatusNotFound {
		t.Errorf("match unknown: status = %d, want 404", code)
	}

	var removed struct {
		Removed bool `json:"removed"`
	}
	do(t, http.MethodDelete, srv.URL+"/api/v1/documents/10?mode=par", "", &removed)
	if !removed.Removed || svc.DocumentCount() != 4 {
		t.Errorf("remove: %+v, count %d", removed, svc.DocumentCount())
	}
	removed.Removed = true
	do(t, http.MethodDelete, srv.URL+"/api/v1/documents/10", "", &removed)
	if removed.Removed {
		t.Error("second remove must report false")
	}
	if code := do(t, http.MethodDelete, srv.URL+"/api/v1/documents/abc", "", nil); code != http.StatusBadRequest {
		t.Errorf("non-numeric id: status = %d", code)
	}
}

func TestBatchAndDeduplicate(t *testing.T) {
	srv, svc := newServer(t)

	var batch struct {
		Batch []struct {
			Query string              `json:"query"`
			Pages [][]json.RawMessage `json:"pages"`
		} `json:"batch"`
	}
	do(t, http.MethodPost, srv.URL+"/api/v1/search/batch", `{"queries": ["funny pet", "nasty"]}`, &batch)
	if len(batch.Batch) != 2 {
		t.Fatalf("batch = %+v", batch)
	}
	if n := len(batch.Batch[0].Pages); n != 2 {
		t.Errorf("3 results in pages of 2: got %d pages", n)
	}

	var joined struct {
		Results []json.RawMessage `json:"results"`
	}
	do(t, http.MethodPost, srv.URL+"/api/v1/search/batch", `{"queries": ["funny pet", "nasty"], "joined": true}`, &joined)
	if len(joined.Results) != 4 {
		t.Errorf("joined results = %d, want 4", len(joined.Results))
	}

	if code := do(t, http.MethodPost, srv.URL+"/api/v1/search/batch", `{"queries": ["-"]}`, nil); code != http.StatusBadRequest {
		t.Errorf("bad batch: status = %d", code)
	}

	var dedup struct {
		Removed []int `json:"removed"`
	}
	do(t, http.MethodPost, srv.URL+"/api/v1/documents/deduplicate?mode="+execution.Parallel.String(), "", &dedup)
	if !reflect.DeepEqual(dedup.Removed, []int{3}) {
		t.Errorf("removed = %v", dedup.Removed)
	}
	if !reflect.DeepEqual(svc.DocumentIDs(), []int{1, 2, 4}) {
		t.Errorf("ids = %v", svc.DocumentIDs())
	}

	var list struct {
		Count int   `json:"count"`
		IDs   []int `json:"ids"`
	}
	do(t, http.MethodGet, srv.URL+"/api/v1/documents", "", &list)
	if list.Count != 3 {
		t.Errorf("list = %+v", list)
	}

	var stats service.Stats
	do(t, http.MethodGet, srv.URL+"/api/v1/stats", "", &stats)
	if stats.Documents != 3 || stats.StopWords != 2 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestCacheInvalidateWithoutCache(t *testing.T) {
	srv, _ := newServer(t)
	var out map[string]string
	if code := do(t, http.MethodPost, srv.URL+"/api/v1/cache/invalidate", "", &out); code != http.StatusOK {
		t.Errorf("status = %d", code)
	}
	if out["status"] != "invalidated" {
		t.Errorf("body = %v", out)
	}
}
