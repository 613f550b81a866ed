// Package executor runs parsed queries against the engine: TF-IDF scoring,
// single-document matching and batched query processing. Reads here never
// lock; the caller serialises them against AddDocument and RemoveDocument.
package executor

import (
	"log/slog"
	"sync/atomic"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/execution"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/concmap"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

// Filter decides whether a document may receive relevance. It must be free
// of side effects; in Parallel mode it is called from several goroutines.
type Filter func(id int, status index.Status, rating int) bool

// StatusFilter accepts documents with exactly the given status.
func StatusFilter(status index.Status) Filter {
	return func(_ int, s index.Status, _ int) bool {
		return s == status
	}
}

// MatchResult lists the plus terms of a query found in one document.
type MatchResult struct {
	Terms  []string     `json:"terms"`
	Status index.Status `json:"status"`
}

// Executor answers queries against one engine. It holds no lock. Callers
// serialise it against mutations.
type Executor struct {
	engine *indexer.Engine
	logger *slog.Logger
}

// New returns an executor over engine.
func New(engine *indexer.Engine) *Executor {
	return &Executor{
		engine: engine,
		logger: slog.Default().With("component", "query-executor"),
	}
}

// Parse parses raw against the engine's stop words.
func (e *Executor) Parse(raw string) (*parser.Query, error) {
	return parser.Parse(raw, e.engine.StopWordSet())
}

// FindTopDocuments parses raw and returns at most
// ranker.MaxResultDocumentCount documents accepted by filter. A nil filter
// accepts every document.
func (e *Executor) FindTopDocuments(raw string, filter Filter, mode execution.Mode) ([]ranker.ScoredDoc, error) {
	q, err := e.Parse(raw)
	if err != nil {
		return nil, err
	}
	return e.Search(q, filter, mode), nil
}

// FindTopDocumentsByStatus is FindTopDocuments restricted to one status.
func (e *Executor) FindTopDocumentsByStatus(raw string, status index.Status, mode execution.Mode) ([]ranker.ScoredDoc, error) {
	return e.FindTopDocuments(raw, StatusFilter(status), mode)
}

// FindTopActive is FindTopDocuments restricted to ACTIVE documents.
func (e *Executor) FindTopActive(raw string, mode execution.Mode) ([]ranker.ScoredDoc, error) {
	return e.FindTopDocuments(raw, StatusFilter(index.StatusActive), mode)
}

// Search scores an already parsed query. Minus terms are applied after
// every plus contribution has been accumulated, so a document holding any
// minus term never appears in the result.
func (e *Executor) Search(q *parser.Query, filter Filter, mode execution.Mode) []ranker.ScoredDoc {
	if filter == nil {
		filter = func(int, index.Status, int) bool { return true }
	}
	var scores map[int]float64
	if mode == execution.Parallel {
		scores = e.scoreParallel(q, filter)
	} else {
		scores = e.scoreSequential(q, filter)
	}

	idx := e.engine.Index()
	ranked := ranker.Rank(scores, func(id int) int {
		d, _ := idx.Document(id)
		return d.Rating
	}, ranker.MaxResultDocumentCount)

	e.logger.Debug("query executed",
		"query", q.Raw,
		"plus_terms", len(q.Plus),
		"minus_terms", len(q.Minus),
		"candidates", len(scores),
		"results", len(ranked),
		"mode", mode.String(),
	)
	return ranked
}

func (e *Executor) scoreSequential(q *parser.Query, filter Filter) map[int]float64 {
	idx := e.engine.Index()
	total := idx.DocCount()
	scores := make(map[int]float64)
	for _, term := range q.Plus {
		postings, ok := idx.Postings(term)
		if !ok {
			continue
		}
		idf := ranker.IDF(total, len(postings))
		for id, tf := range postings {
			d, _ := idx.Document(id)
			if filter(id, d.Status, d.Rating) {
				scores[id] += tf * idf
			}
		}
	}
	for _, term := range q.Minus {
		postings, ok := idx.Postings(term)
		if !ok {
			continue
		}
		for id := range postings {
			delete(scores, id)
		}
	}
	return scores
}

func (e *Executor) scoreParallel(q *parser.Query, filter Filter) map[int]float64 {
	idx := e.engine.Index()
	cfg := e.engine.Config()
	total := idx.DocCount()
	acc := concmap.New[int, float64](cfg.AccumulatorShards)

	_ = execution.ForEach(execution.Parallel, len(q.Plus), cfg.Workers, func(i int) error {
		postings, ok := idx.Postings(q.Plus[i])
		if !ok {
			return nil
		}
		idf := ranker.IDF(total, len(postings))
		for id, tf := range postings {
			d, _ := idx.Document(id)
			if filter(id, d.Status, d.Rating) {
				acc.Add(id, tf*idf)
			}
		}
		return nil
	})
	_ = execution.ForEach(execution.Parallel, len(q.Minus), cfg.Workers, func(i int) error {
		postings, ok := idx.Postings(q.Minus[i])
		if !ok {
			return nil
		}
		for id := range postings {
			acc.Erase(id)
		}
		return nil
	})
	return acc.Drain()
}

// MatchDocument reports which plus terms of raw occur in document id. If
// any minus term occurs in it the term list is empty. The id is checked
// before the query is parsed.
func (e *Executor) MatchDocument(raw string, id int, mode execution.Mode) (MatchResult, error) {
	idx := e.engine.Index()
	data, ok := idx.Document(id)
	if !ok {
		return MatchResult{}, apperrors.NotFound(id)
	}
	q, err := e.Parse(raw)
	if err != nil {
		return MatchResult{}, err
	}
	return MatchResult{
		Terms:  e.matchTerms(q, id, mode),
		Status: data.Status,
	}, nil
}

func (e *Executor) matchTerms(q *parser.Query, id int, mode execution.Mode) []string {
	terms := e.engine.Index().Terms(id)
	workers := e.engine.Config().Workers

	var excluded atomic.Bool
	_ = execution.ForEach(mode, len(q.Minus), workers, func(i int) error {
		if _, ok := terms[q.Minus[i]]; ok {
			excluded.Store(true)
		}
		return nil
	})
	if excluded.Load() {
		return []string{}
	}

	hit := make([]bool, len(q.Plus))
	_ = execution.ForEach(mode, len(q.Plus), workers, func(i int) error {
		_, hit[i] = terms[q.Plus[i]]
		return nil
	})
	matched := make([]string, 0, len(q.Plus))
	for i, ok := range hit {
		if ok {
			matched = append(matched, q.Plus[i])
		}
	}
	return matched
}
