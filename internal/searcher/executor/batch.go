package executor

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/execution"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
)

// ProcessQueries runs FindTopActive for every query, at most concurrency
// at a time (non-positive means one worker per CPU). Results keep the
// order of queries. The first failing query aborts the batch.
func (e *Executor) ProcessQueries(ctx context.Context, queries []string, concurrency int) ([][]ranker.ScoredDoc, error) {
	results := make([][]ranker.ScoredDoc, len(queries))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(execution.Workers(concurrency))
	for i, raw := range queries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			docs, err := e.FindTopActive(raw, execution.Sequential)
			if err != nil {
				return fmt.Errorf("query %d: %w", i, err)
			}
			results[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	e.logger.Debug("batch processed", "queries", len(queries))
	return results, nil
}

// ProcessQueriesJoined is ProcessQueries with the per-query results
// concatenated in query order.
func (e *Executor) ProcessQueriesJoined(ctx context.Context, queries []string, concurrency int) ([]ranker.ScoredDoc, error) {
	perQuery, err := e.ProcessQueries(ctx, queries, concurrency)
	if err != nil {
		return nil, err
	}
	return Join(perQuery), nil
}

// Join concatenates per-query results in query order. The result is never
// nil.
func Join(perQuery [][]ranker.ScoredDoc) []ranker.ScoredDoc {
	n := 0
	for _, docs := range perQuery {
		n += len(docs)
	}
	joined := make([]ranker.ScoredDoc, 0, n)
	for _, docs := range perQuery {
		joined = append(joined, docs...)
	}
	return joined
}
