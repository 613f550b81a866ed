// Package index holds the Document Store and the inverted index. A term is
// a key of the forward index if and only if at least one live document
// contains it. MemoryIndex performs no locking of its own: callers must not
// run Add or Remove concurrently with any other access.
package index

import (
	"maps"
	"slices"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/execution"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/concmap"
)

// MemoryIndex is the Document Store plus the forward and reverse term
// maps. It does no locking of its own.
type MemoryIndex struct {
	terms    map[string]map[int]float64
	docTerms map[int]map[string]float64
	docs     map[int]DocumentData
	postings int

	workers int
	shards  int
}

// NewMemoryIndex creates an empty index. workers and shards size the
// parallel removal path; non-positive values pick defaults.
func NewMemoryIndex(workers, shards int) *MemoryIndex {
	return &MemoryIndex{
		terms:    make(map[string]map[int]float64),
		docTerms: make(map[int]map[string]float64),
		docs:     make(map[int]DocumentData),
		workers:  workers,
		shards:   shards,
	}
}

// Add registers id with its non-stop words. Each occurrence contributes
// 1/len(words) to the term's frequency, so the frequencies of a document
// sum to 1. A document with no words is live but has no postings. The
// caller guarantees id is new and words are valid.
func (m *MemoryIndex) Add(id int, words []string, data DocumentData) {
	termData := make(map[string]float64)
	if len(words) > 0 {
		inv := 1.0 / float64(len(words))
		for _, w := range words {
			termData[w] += inv
		}
	}

	for term, tf := range termData {
		postings, exists := m.terms[term]
		if !exists {
			postings = make(map[int]float64)
			m.terms[term] = postings
		}
		postings[id] = tf
	}
	m.postings += len(termData)
	m.docTerms[id] = termData
	m.docs[id] = data
}

// Remove erases id from the forward index, the reverse map and the
// Document Store. Terms left without postings are dropped. In Parallel
// mode the per-term erasure is spread over workers; each worker touches a
// distinct posting map, and emptied terms are collected in a sharded map
// and deleted after all workers finish. It reports whether id was live.
func (m *MemoryIndex) Remove(id int, mode execution.Mode) bool {
	freqs, ok := m.docTerms[id]
	if !ok {
		return false
	}
	terms := slices.Sorted(maps.Keys(freqs))
	emptied := concmap.New[string, int](m.shards)

	_ = execution.ForEach(mode, len(terms), m.workers, func(i int) error {
		postings := m.terms[terms[i]]
		delete(postings, id)
		if len(postings) == 0 {
			emptied.Add(terms[i], 1)
		}
		return nil
	})
	for term := range emptied.Drain() {
		delete(m.terms, term)
	}

	m.postings -= len(terms)
	delete(m.docTerms, id)
	delete(m.docs, id)
	return true
}

// Has reports whether id is indexed.
func (m *MemoryIndex) Has(id int) bool {
	_, ok := m.docs[id]
	return ok
}

// Document returns the stored rating and status of id.
func (m *MemoryIndex) Document(id int) (DocumentData, bool) {
	d, ok := m.docs[id]
	return d, ok
}

// Postings returns the live id→frequency map for term. The map is owned by
// the index and must not be modified.
func (m *MemoryIndex) Postings(term string) (map[int]float64, bool) {
	p, ok := m.terms[term]
	return p, ok
}

// DocumentFrequency is the number of live documents containing term.
func (m *MemoryIndex) DocumentFrequency(term string) int {
	return len(m.terms[term])
}

// Contains reports whether document id holds term.
func (m *MemoryIndex) Contains(term string, id int) bool {
	_, ok := m.terms[term][id]
	return ok
}

// Terms returns the live term→frequency view of a document, or nil. The
// map is owned by the index and must not be modified.
func (m *MemoryIndex) Terms(id int) map[string]float64 {
	return m.docTerms[id]
}

// WordFrequencies returns a copy of the document's term→frequency view; it
// is empty, not nil, for an unknown id.
func (m *MemoryIndex) WordFrequencies(id int) map[string]float64 {
	out := make(map[string]float64, len(m.docTerms[id]))
	maps.Copy(out, m.docTerms[id])
	return out
}

// DocCount returns the number of live documents.
func (m *MemoryIndex) DocCount() int {
	return len(m.docs)
}

// TermCount returns the number of distinct indexed terms.
func (m *MemoryIndex) TermCount() int {
	return len(m.terms)
}

func (m *MemoryIndex) PostingCount() int {
	return m.postings
}

// DocIDs returns the live ids in ascending order.
func (m *MemoryIndex) DocIDs() []int {
	return slices.Sorted(maps.Keys(m.docs))
}

// Snapshot returns every term with its postings, terms in lexical order and
// postings in id order.
func (m *MemoryIndex) Snapshot() []TermEntry {
	entries := make([]TermEntry, 0, len(m.terms))
	for _, term := range slices.Sorted(maps.Keys(m.terms)) {
		docs := m.terms[term]
		postings := make(PostingList, 0, len(docs))
		for _, id := range slices.Sorted(maps.Keys(docs)) {
			postings = append(postings, Posting{DocID: id, Frequency: docs[id]})
		}
		entries = append(entries, TermEntry{
			Term:     term,
			Postings: postings,
		})
	}
	return entries
}
