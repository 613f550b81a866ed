// Package window keeps a sliding record of the most recent search requests
// and how many of them came back empty.
package window

import "sync"

// DefaultSize is one request per minute for a day.
const DefaultSize = 1440

// Window remembers, for each of the last Size requests, whether it
// returned any documents. It is safe for concurrent use.
type Window struct {
	mu        sync.Mutex
	empty     []bool
	next      int
	count     int
	noResults int
}

// New creates a window of size entries; non-positive means DefaultSize.
func New(size int) *Window {
	if size <= 0 {
		size = DefaultSize
	}
	return &Window{empty: make([]bool, size)}
}

// Record adds one request that returned results documents, evicting the
// oldest entry once the window is full.
func (w *Window) Record(results int) {
	isEmpty := results == 0

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.count == len(w.empty) {
		if w.empty[w.next] {
			w.noResults--
		}
	} else {
		w.count++
	}
	w.empty[w.next] = isEmpty
	if isEmpty {
		w.noResults++
	}
	w.next = (w.next + 1) % len(w.empty)
}

// NoResultRequests is the number of requests in the window that returned
// nothing.
func (w *Window) NoResultRequests() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.noResults
}

// Len is the number of requests currently in the window.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Size is the capacity of the window.
func (w *Window) Size() int {
	return len(w.empty)
}
