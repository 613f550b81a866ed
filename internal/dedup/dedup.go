// Package dedup finds documents whose sets of indexed terms are identical
// and removes all but the lowest id of each group. Term frequencies are
// ignored: "cat cat dog" duplicates "dog cat".
package dedup

import (
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/execution"
)

// Index is the part of the engine the detector reads and mutates.
type Index interface {
	DocumentIDs() []int
	WordFrequencies(id int) map[string]float64
	RemoveDocument(id int, mode execution.Mode) bool
}

// FindDuplicates returns, in ascending order, every id whose term set was
// already seen on a lower id.
func FindDuplicates(idx Index) []int {
	seen := make(map[string]struct{})
	var dups []int
	for _, id := range idx.DocumentIDs() {
		key := termSetKey(idx.WordFrequencies(id))
		if _, ok := seen[key]; ok {
			dups = append(dups, id)
			continue
		}
		seen[key] = struct{}{}
	}
	return dups
}

// RemoveDuplicates removes what FindDuplicates reports and returns the
// removed ids. Running it again right away removes nothing.
func RemoveDuplicates(idx Index, mode execution.Mode) []int {
	logger := slog.Default().With("component", "dedup")
	dups := FindDuplicates(idx)
	removed := dups[:0]
	for _, id := range dups {
		logger.Info("found duplicate document", "doc_id", id)
		if idx.RemoveDocument(id, mode) {
			removed = append(removed, id)
		}
	}
	return removed
}

// Terms never contain whitespace, so a space-joined sorted list is an
// unambiguous key.
func termSetKey(freqs map[string]float64) string {
	return strings.Join(slices.Sorted(maps.Keys(freqs)), " ")
}
