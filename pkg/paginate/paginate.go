// Package paginate slices an already ordered list into fixed-size pages.
package paginate

import "slices"

// Paginate splits items into consecutive pages of at most size elements.
// Pages share the backing array of items. A non-positive size yields a
// single page holding everything; empty input yields no pages.
func Paginate[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 {
		return [][]T{items}
	}
	return slices.Collect(slices.Chunk(items, size))
}

// Page returns the zero-based page n, or nil when n is out of range.
func Page[T any](items []T, size, n int) []T {
	pages := Paginate(items, size)
	if n < 0 || n >= len(pages) {
		return nil
	}
	return pages[n]
}
