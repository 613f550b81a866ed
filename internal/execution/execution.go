// Package execution selects between the sequential and parallel strategies
// used for scoring, matching and removal, and provides the fan-out helper
// the parallel strategies share.
package execution

import (
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Mode selects how the engine runs a search or removal.
type Mode int

const (
	// Sequential runs on the calling goroutine and is fully deterministic.
	Sequential Mode = iota
	// Parallel fans work out over worker goroutines and blocks until they
	// all finish.
	Parallel
)

func (m Mode) String() string {
	switch m {
	case Sequential:
		return "seq"
	case Parallel:
		return "par"
	default:
		return "unknown"
	}
}

// ParseMode accepts "seq"/"sequential" and "par"/"parallel"; the empty
// string selects Sequential.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "seq", "sequential":
		return Sequential, nil
	case "par", "parallel":
		return Parallel, nil
	default:
		return Sequential, fmt.Errorf("unknown execution mode %q", s)
	}
}

// Workers normalises a configured worker count; non-positive means
// GOMAXPROCS.
func Workers(n int) int {
	if n <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return n
}

// ForEach calls fn for every index in [0, n). In Sequential mode the calls
// happen in order on the caller's goroutine. In Parallel mode the range is
// split into at most workers contiguous chunks, one goroutine each. The
// first error stops the sequential loop and is returned in both modes.
func ForEach(mode Mode, n, workers int, fn func(i int) error) error {
	if n == 0 {
		return nil
	}
	if mode != Parallel || n == 1 {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}
	workers = min(Workers(workers), n)
	chunk := (n + workers - 1) / workers
	var g errgroup.Group
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := fn(i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
