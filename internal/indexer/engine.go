package indexer

import (
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/execution"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

// Engine owns the stop words and the in-memory index. Reads may run
// concurrently with each other; AddDocument and RemoveDocument must not
// run concurrently with any other call on the same Engine.
type Engine struct {
	stopWords  *tokenizer.StopWords
	memIndex   *index.MemoryIndex
	cfg        config.EngineConfig
	logger     *slog.Logger
	generation uint64
}

// NewEngine builds an engine from a list of stop words. Empty entries are
// ignored; an entry with control characters fails construction.
func NewEngine(stopWords []string, cfg config.EngineConfig) (*Engine, error) {
	sw, err := tokenizer.NewStopWords(stopWords)
	if err != nil {
		return nil, fmt.Errorf("building stop words: %w", err)
	}
	return newEngine(sw, cfg), nil
}

// NewEngineFromText builds an engine from whitespace-delimited stop words.
func NewEngineFromText(stopWords string, cfg config.EngineConfig) (*Engine, error) {
	sw, err := tokenizer.ParseStopWords(stopWords)
	if err != nil {
		return nil, fmt.Errorf("building stop words: %w", err)
	}
	return newEngine(sw, cfg), nil
}

func newEngine(sw *tokenizer.StopWords, cfg config.EngineConfig) *Engine {
	e := &Engine{
		stopWords: sw,
		memIndex:  index.NewMemoryIndex(cfg.Workers, cfg.AccumulatorShards),
		cfg:       cfg,
		logger:    slog.Default().With("component", "indexer"),
	}
	e.logger.Debug("engine created",
		"stop_words", sw.Len(),
		"workers", execution.Workers(cfg.Workers),
	)
	return e
}

// AddDocument validates and indexes a document. All checks happen before
// any mutation, so a failed call leaves the engine unchanged.
func (e *Engine) AddDocument(id int, text string, status index.Status, ratings []int) error {
	if id < 0 {
		return apperrors.InvalidID(id, "is negative")
	}
	if e.memIndex.Has(id) {
		return apperrors.InvalidID(id, "is already indexed")
	}
	if !status.Valid() {
		return apperrors.Validation("unknown document status %d", int(status))
	}
	words, err := e.stopWords.SplitNoStop(text)
	if err != nil {
		return fmt.Errorf("document %d: %w", id, err)
	}

	e.memIndex.Add(id, words, index.DocumentData{
		Rating: index.AverageRating(ratings),
		Status: status,
	})
	e.generation++
	e.logger.Debug("document indexed",
		"doc_id", id,
		"token_count", len(words),
		"status", status.String(),
	)
	return nil
}

// RemoveDocument erases a document and every posting it owns. Removing an
// id that is not live is a no-op; the return value reports whether
// anything was removed.
func (e *Engine) RemoveDocument(id int, mode execution.Mode) bool {
	if !e.memIndex.Remove(id, mode) {
		e.logger.Debug("remove of unknown document ignored", "doc_id", id)
		return false
	}
	e.generation++
	e.logger.Debug("document removed", "doc_id", id, "mode", mode.String())
	return true
}

// WordFrequencies returns a copy of the document's term→frequency view,
// empty when id is not live.
func (e *Engine) WordFrequencies(id int) map[string]float64 {
	return e.memIndex.WordFrequencies(id)
}

// DocumentCount returns the number of live documents.
func (e *Engine) DocumentCount() int {
	return e.memIndex.DocCount()
}

// DocumentIDs returns the live ids in ascending order.
func (e *Engine) DocumentIDs() []int {
	return e.memIndex.DocIDs()
}

// Generation changes after every successful mutation. Caches use it to
// tell stale results from fresh ones.
func (e *Engine) Generation() uint64 {
	return e.generation
}

// StopWords returns the stop words in ascending order.
func (e *Engine) StopWords() []string {
	return e.stopWords.Words()
}

// StopWordSet exposes the set itself for query parsing.
func (e *Engine) StopWordSet() *tokenizer.StopWords {
	return e.stopWords
}

// Index exposes the underlying index for read-only use by the executor.
func (e *Engine) Index() *index.MemoryIndex {
	return e.memIndex
}

// Config returns the engine configuration it was built with.
func (e *Engine) Config() config.EngineConfig {
	return e.cfg
}

// Stats summarises the index size.
type Stats struct {
	Documents int `json:"documents"`
	Terms     int `json:"terms"`
	Postings  int `json:"postings"`
	StopWords int `json:"stop_words"`
}

// Stats reports the current index size.
func (e *Engine) Stats() Stats {
	return Stats{
		Documents: e.memIndex.DocCount(),
		Terms:     e.memIndex.TermCount(),
		Postings:  e.memIndex.PostingCount(),
		StopWords: e.stopWords.Len(),
	}
}
