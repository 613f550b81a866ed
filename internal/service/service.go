// Package service puts the engine behind a reader/writer lock so it can be
// shared by HTTP handlers, the Kafka consumer and bootstrap loaders. Reads
// run concurrently; AddDocument, RemoveDocument and deduplication exclude
// everything else. It also wires the result cache, the request window and
// metrics around the core operations.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/dedup"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/execution"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/window"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/tracing"
)

// Document is the ingestion form of a document, shared by the HTTP API,
// Kafka events and bootstrap sources.
type Document struct {
	ID      int          `json:"id"`
	Text    string       `json:"text"`
	Status  index.Status `json:"status"`
	Ratings []int        `json:"ratings"`
}

// SearchRequest is one ranked query. The zero Status is ACTIVE.
type SearchRequest struct {
	Query  string
	Status index.Status
	Mode   execution.Mode
}

// SearchResult is a ranked answer with the generation it was computed at.
type SearchResult struct {
	Query      string             `json:"query"`
	Results    []ranker.ScoredDoc `json:"results"`
	Cached     bool               `json:"cached"`
	Generation uint64             `json:"generation"`
}

// Stats combines index size, request window and cache counters.
type Stats struct {
	indexer.Stats
	Generation       uint64 `json:"generation"`
	WindowRequests   int    `json:"window_requests"`
	NoResultRequests int    `json:"no_result_requests"`
	CacheEnabled     bool   `json:"cache_enabled"`
	CacheHits        int64  `json:"cache_hits"`
	CacheMisses      int64  `json:"cache_misses"`
}

// Options configures a Service.
type Options struct {
	// Cache is optional; nil disables result caching.
	Cache            *cache.QueryCache
	Metrics          *metrics.Metrics
	WindowSize       int
	BatchConcurrency int
	DefaultMode      execution.Mode
}

// Service is safe for concurrent use. Mutations take the write lock and
// every read takes the read lock.
type Service struct {
	mu       sync.RWMutex
	engine   *indexer.Engine
	exec     *executor.Executor
	cache    *cache.QueryCache
	window   *window.Window
	metrics  *metrics.Metrics
	mode     execution.Mode
	batchCap int
	logger   *slog.Logger
}

// New wraps engine in a Service. Zero options fall back to defaults.
func New(engine *indexer.Engine, opts Options) *Service {
	m := opts.Metrics
	if m == nil {
		m = metrics.New(nil)
	}
	s := &Service{
		engine:   engine,
		exec:     executor.New(engine),
		cache:    opts.Cache,
		window:   window.New(opts.WindowSize),
		metrics:  m,
		mode:     opts.DefaultMode,
		batchCap: opts.BatchConcurrency,
		logger:   slog.Default().With("component", "search-service"),
	}
	s.updateIndexGauges()
	return s
}

// DefaultMode is the execution mode used when a caller does not pick one.
func (s *Service) DefaultMode() execution.Mode {
	return s.mode
}

// AddDocument indexes doc under the write lock.
func (s *Service) AddDocument(ctx context.Context, doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.AddDocument(doc.ID, doc.Text, doc.Status, doc.Ratings); err != nil {
		logger.FromContext(ctx).Debug("document rejected", "doc_id", doc.ID, "error", err)
		return err
	}
	s.metrics.DocsIndexedTotal.Inc()
	s.updateIndexGauges()
	return nil
}

// RemoveDocument reports whether id was live. Unknown ids are a no-op.
func (s *Service) RemoveDocument(ctx context.Context, id int, mode execution.Mode) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.engine.RemoveDocument(id, mode) {
		return false
	}
	s.metrics.DocsRemovedTotal.WithLabelValues(mode.String()).Inc()
	s.updateIndexGauges()
	logger.FromContext(ctx).Info("document removed", "doc_id", id, "mode", mode.String())
	return true
}

// Deduplicate removes documents whose term sets repeat a lower id's.
func (s *Service) Deduplicate(ctx context.Context, mode execution.Mode) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := dedup.RemoveDuplicates(s.engine, mode)
	s.metrics.DuplicatesRemovedTotal.Add(float64(len(removed)))
	s.updateIndexGauges()
	logger.FromContext(ctx).Info("deduplication finished", "removed", len(removed))
	return removed
}

// Search runs one ranked query and records it in the request window.
func (s *Service) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	start := time.Now()
	log := logger.FromContext(ctx)
	ctx, span := tracing.Start(ctx, "search")
	defer func() {
		span.End()
		span.Log(ctx, log, slog.LevelDebug)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, parseSpan := tracing.Start(ctx, "parse")
	q, err := s.exec.Parse(req.Query)
	parseSpan.End()
	if err != nil {
		s.metrics.SearchQueriesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	parseSpan.SetAttr("plus", len(q.Plus))
	parseSpan.SetAttr("minus", len(q.Minus))

	compute := func() ([]ranker.ScoredDoc, error) {
		_, scoreSpan := tracing.Start(ctx, "score")
		defer scoreSpan.End()
		scoreSpan.SetAttr("mode", req.Mode.String())
		return s.exec.Search(q, executor.StatusFilter(req.Status), req.Mode), nil
	}

	var (
		docs   []ranker.ScoredDoc
		cached bool
	)
	if s.cache != nil {
		key := cache.Key{
			Generation: s.engine.Generation(),
			Query:      q.Key(),
			Filter:     req.Status.String(),
		}
		docs, cached, err = s.cache.GetOrCompute(ctx, key, compute)
		if cached {
			s.metrics.CacheHitsTotal.Inc()
		} else {
			s.metrics.CacheMissesTotal.Inc()
		}
	} else {
		docs, err = compute()
	}
	if err != nil {
		s.metrics.SearchQueriesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	s.window.Record(len(docs))
	s.metrics.WindowNoResults.Set(float64(s.window.NoResultRequests()))
	resultType := "hit"
	if len(docs) == 0 {
		resultType = "zero_result"
	}
	cacheStatus := "miss"
	if cached {
		cacheStatus = "hit"
	}
	s.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	s.metrics.SearchLatency.WithLabelValues(cacheStatus, req.Mode.String()).Observe(time.Since(start).Seconds())
	s.metrics.SearchResultsCount.Observe(float64(len(docs)))

	log.Info("search completed",
		"query", req.Query,
		"status", req.Status.String(),
		"mode", req.Mode.String(),
		"returned", len(docs),
		"cache_hit", cached,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return &SearchResult{
		Query:      req.Query,
		Results:    docs,
		Cached:     cached,
		Generation: s.engine.Generation(),
	}, nil
}

// SearchBatch runs every query against ACTIVE documents concurrently.
func (s *Service) SearchBatch(ctx context.Context, queries []string) ([][]ranker.ScoredDoc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.searchBatch(ctx, queries)
}

// SearchBatchJoined is SearchBatch with results concatenated in query order.
// Each query is still recorded in the request window on its own.
func (s *Service) SearchBatchJoined(ctx context.Context, queries []string) ([]ranker.ScoredDoc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results, err := s.searchBatch(ctx, queries)
	if err != nil {
		return nil, err
	}
	return executor.Join(results), nil
}

// searchBatch runs the queries and records each result count. s.mu must be
// held for reading.
func (s *Service) searchBatch(ctx context.Context, queries []string) ([][]ranker.ScoredDoc, error) {
	results, err := s.exec.ProcessQueries(ctx, queries, s.batchCap)
	if err != nil {
		return nil, err
	}
	for _, docs := range results {
		s.window.Record(len(docs))
	}
	s.metrics.WindowNoResults.Set(float64(s.window.NoResultRequests()))
	return results, nil
}

// MatchDocument reports which plus words of raw document id contains.
func (s *Service) MatchDocument(ctx context.Context, raw string, id int, mode execution.Mode) (executor.MatchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exec.MatchDocument(raw, id, mode)
}

// WordFrequencies returns a copy of the term frequencies of id.
func (s *Service) WordFrequencies(id int) map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.WordFrequencies(id)
}

// DocumentIDs returns the live ids in ascending order.
func (s *Service) DocumentIDs() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.DocumentIDs()
}

func (s *Service) DocumentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.DocumentCount()
}

// Stats snapshots the service counters.
func (s *Service) Stats() Stats {
	s.mu.RLock()
	st := Stats{
		Stats:      s.engine.Stats(),
		Generation: s.engine.Generation(),
	}
	s.mu.RUnlock()

	st.WindowRequests = s.window.Len()
	st.NoResultRequests = s.window.NoResultRequests()
	if s.cache != nil {
		st.CacheEnabled = true
		st.CacheHits, st.CacheMisses = s.cache.Stats()
	}
	return st
}

// InvalidateCache drops every cached result. Generation-keyed entries
// already go stale on mutation; this reclaims their memory early.
func (s *Service) InvalidateCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx)
}

// Ping is the engine readiness check. It fails only when the context is
// already done, since the engine has no external dependency.
func (s *Service) Ping(ctx context.Context) error {
	return ctx.Err()
}

// callers hold s.mu
func (s *Service) updateIndexGauges() {
	st := s.engine.Stats()
	s.metrics.IndexDocuments.Set(float64(st.Documents))
	s.metrics.IndexTerms.Set(float64(st.Terms))
}
