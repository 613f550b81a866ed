package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/execution"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

type memStore struct {
	mu     sync.Mutex
	values map[string]string
}

func (s *memStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return "", apperrors.ErrCacheMiss
	}
	return v, nil
}

func (s *memStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = string(value.([]byte))
	return nil
}

func (s *memStore) FlushByPattern(_ context.Context, pattern string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k := range s.values {
		if ok, _ := path.Match(pattern, k); ok {
			delete(s.values, k)
			n++
		}
	}
	return n, nil
}

func newService(t *testing.T, withCache bool) *Service {
	t.Helper()
	e, err := indexer.NewEngineFromText("and with", config.EngineConfig{Workers: 4})
	if err != nil {
		t.Fatal(err)
	}
	opts := Options{WindowSize: 10, BatchConcurrency: 2}
	if withCache {
		opts.Cache = cache.New(&memStore{values: make(map[string]string)}, time.Minute)
	}
	s := New(e, opts)
	ctx := context.Background()
	for _, d := range []Document{
		{ID: 1, Text: "funny pet and nasty rat", Ratings: []int{7, 2, 7}},
		{ID: 2, Text: "funny pet with curly hair", Ratings: []int{1, 2}},
		{ID: 3, Text: "funny pet with curly hair", Ratings: []int{1, 2}},
	} {
		if err := s.AddDocument(ctx, d); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func TestSearchCachesByGeneration(t *testing.T) {
	s := newService(t, true)
	ctx := context.Background()
	req := SearchRequest{Query: "curly hair", Status: index.StatusActive}

	first, err := s.Search(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if first.Cached || len(first.Results) != 2 {
		t.Fatalf("first = %+v", first)
	}
	second, _ := s.Search(ctx, SearchRequest{Query: "hair curly curly", Status: index.StatusActive})
	if !second.Cached || !reflect.DeepEqual(second.Results, first.Results) {
		t.Errorf("equivalent query should hit the cache: %+v", second)
	}

	s.RemoveDocument(ctx, 3, execution.Parallel)
	third, _ := s.Search(ctx, req)
	if third.Cached {
		t.Error("a mutation must make earlier cache entries unreachable")
	}
	if len(third.Results) != 1 || third.Results[0].ID != 2 {
		t.Errorf("third = %+v", third.Results)
	}
	if third.Generation == first.Generation {
		t.Error("generation did not advance")
	}
}

func TestSearchErrors(t *testing.T) {
	s := newService(t, false)
	_, err := s.Search(context.Background(), SearchRequest{Query: "cat --dog"})
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("err = %v", err)
	}
}

func TestWindowCountsEmptyResults(t *testing.T) {
	s := newService(t, false)
	ctx := context.Background()
	_, _ = s.Search(ctx, SearchRequest{Query: "empty request"})
	_, _ = s.Search(ctx, SearchRequest{Query: "curly"})
	_, _ = s.Search(ctx, SearchRequest{Query: "sparrow"})
	_, _ = s.SearchBatch(ctx, []string{"nasty", "nothing here"})

	st := s.Stats()
	if st.WindowRequests != 5 || st.NoResultRequests != 3 {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestJoinedBatchCountsEachQuery(t *testing.T) {
	s := newService(t, false)
	ctx := context.Background()
	joined, err := s.SearchBatchJoined(ctx, []string{"nasty", "nothing here", "curly"})
	if err != nil {
		t.Fatal(err)
	}
	if len(joined) != 3 {
		t.Errorf("joined = %v", joined)
	}
	st := s.Stats()
	if st.WindowRequests != 3 || st.NoResultRequests != 1 {
		t.Errorf("Stats() = %+v", st)
	}

	empty, err := s.SearchBatchJoined(ctx, []string{"sparrow"})
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("SearchBatchJoined(no match) = %v, %v", empty, err)
	}
}

func TestAddDocumentValidation(t *testing.T) {
	s := newService(t, false)
	ctx := context.Background()
	if err := s.AddDocument(ctx, Document{ID: 5, Text: "bad\x01word", Ratings: []int{1}}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("err = %v", err)
	}
	if err := s.AddDocument(ctx, Document{ID: 1, Text: "dup"}); !errors.Is(err, apperrors.ErrInvalidDocumentID) {
		t.Errorf("err = %v", err)
	}
	if s.DocumentCount() != 3 {
		t.Errorf("DocumentCount() = %d", s.DocumentCount())
	}
}

func TestDeduplicate(t *testing.T) {
	s := newService(t, false)
	removed := s.Deduplicate(context.Background(), execution.Sequential)
	if !reflect.DeepEqual(removed, []int{3}) {
		t.Fatalf("removed = %v", removed)
	}
	if !reflect.DeepEqual(s.DocumentIDs(), []int{1, 2}) {
		t.Errorf("DocumentIDs() = %v", s.DocumentIDs())
	}
}

func TestMatchAndFrequencies(t *testing.T) {
	s := newService(t, false)
	m, err := s.MatchDocument(context.Background(), "curly rat", 2, execution.Parallel)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(m.Terms, []string{"curly"}) {
		t.Errorf("Terms = %v", m.Terms)
	}
	if len(s.WordFrequencies(2)) != 4 || len(s.WordFrequencies(99)) != 0 {
		t.Error("WordFrequencies mismatch")
	}
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	s := newService(t, true)
	ctx := context.Background()
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Go(func() {
			for i := 0; i < 50; i++ {
				id := 100 + w*1000 + i
				_ = s.AddDocument(ctx, Document{ID: id, Text: fmt.Sprintf("funny word%d pet", i)})
				if i%3 == 0 {
					s.RemoveDocument(ctx, id, execution.Parallel)
				}
			}
		})
	}
	for r := 0; r < 4; r++ {
		wg.Go(func() {
			for i := 0; i < 50; i++ {
				mode := execution.Sequential
				if i%2 == 0 {
					mode = execution.Parallel
				}
				if _, err := s.Search(ctx, SearchRequest{Query: "funny pet -rat", Mode: mode}); err != nil {
					t.Error(err)
					return
				}
				_, _ = s.SearchBatch(ctx, []string{"funny", "word7"})
			}
		})
	}
	wg.Wait()
	// 3 initial + 4 writers * (50 - 17 removed)
	if got := s.DocumentCount(); got != 3+4*33 {
		t.Errorf("DocumentCount() = %d, want %d", got, 3+4*33)
	}
}

func TestInvalidateCache(t *testing.T) {
	s := newService(t, true)
	ctx := context.Background()
	req := SearchRequest{Query: "nasty"}
	if _, err := s.Search(ctx, req); err != nil {
		t.Fatal(err)
	}
	if err := s.InvalidateCache(ctx); err != nil {
		t.Fatal(err)
	}
	again, _ := s.Search(ctx, req)
	if again.Cached {
		t.Error("result served from cache after invalidation")
	}
	if err := newService(t, false).InvalidateCache(ctx); err != nil {
		t.Errorf("no cache: %v", err)
	}
}
