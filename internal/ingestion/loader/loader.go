// Package loader bootstraps the index from a document source: a Postgres
// or SQLite table, or plain text files with one document per line.
package loader

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/service"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

// Source yields documents in id order. A per-record error matching
// errors.ErrInvalidInput marks one bad record; any other error ends the
// sequence.
type Source interface {
	Name() string
	Count(ctx context.Context) (int, error)
	Documents(ctx context.Context) iter.Seq2[service.Document, error]
	Close() error
}

// Adder is the part of *service.Service a load writes to.
type Adder interface {
	AddDocument(ctx context.Context, doc service.Document) error
}

// Progress is called after every record with the number handled so far.
type Progress func(done, total int)

// Result summarises one Load.
type Result struct {
	Loaded   int
	Rejected int
	Duration time.Duration
}

// Load adds every document of src to dst. Records the index refuses are
// counted and skipped; a source failure aborts the load.
func Load(ctx context.Context, src Source, dst Adder, progress Progress) (Result, error) {
	start := time.Now()
	logger := slog.Default().With("component", "loader", "source", src.Name())

	total, err := src.Count(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("counting %s: %w", src.Name(), err)
	}
	logger.Info("loading documents", "total", total)

	var res Result
	for doc, err := range src.Documents(ctx) {
		if err == nil {
			err = dst.AddDocument(ctx, doc)
		}
		if err != nil {
			if !rejectable(err) {
				return res, fmt.Errorf("loading %s: %w", src.Name(), err)
			}
			res.Rejected++
			logger.Warn("document rejected", "doc_id", doc.ID, "error", err)
		} else {
			res.Loaded++
		}
		if progress != nil {
			progress(res.Loaded+res.Rejected, total)
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
	}
	res.Duration = time.Since(start)
	logger.Info("documents loaded",
		"loaded", res.Loaded,
		"rejected", res.Rejected,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func rejectable(err error) bool {
	return errors.Is(err, apperrors.ErrInvalidInput) ||
		errors.Is(err, apperrors.ErrInvalidDocumentID)
}
