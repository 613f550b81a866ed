package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
)

var defaultLoadQueries = []string{
	"funny pet",
	"curly hair",
	"nasty rat -curly",
	"pet -rat",
	"very funny",
	"curly -hair",
}

type loadStats struct {
	total     atomic.Int64
	success   atomic.Int64
	errors    atomic.Int64
	cacheHits atomic.Int64
	empty     atomic.Int64

	mu        sync.Mutex
	latencies []time.Duration
	codes     map[int]int64
}

func newLoadStats() *loadStats {
	return &loadStats{
		latencies: make([]time.Duration, 0, 100000),
		codes:     make(map[int]int64),
	}
}

func (s *loadStats) record(d time.Duration, code int, err error) {
	s.total.Add(1)
	if err != nil {
		s.errors.Add(1)
		return
	}
	if code >= 200 && code < 300 {
		s.success.Add(1)
	} else {
		s.errors.Add(1)
	}
	s.mu.Lock()
	s.latencies = append(s.latencies, d)
	s.codes[code]++
	s.mu.Unlock()
}

func newLoadTestCmd(opts *options) *cobra.Command {
	var (
		baseURL     string
		concurrency int
		duration    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "loadtest [QUERY...]",
		Short: "Hammer a running search server with queries and report latency",
		RunE: func(cmd *cobra.Command, args []string) error {
			queries := args
			if len(queries) == 0 {
				queries = defaultLoadQueries
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Target:      %s\n", baseURL)
			fmt.Fprintf(out, "Concurrency: %d\n", concurrency)
			fmt.Fprintf(out, "Duration:    %s\n", duration)
			fmt.Fprintf(out, "Queries:     %d unique\n\n", len(queries))

			ctx, cancel := context.WithTimeout(cmd.Context(), duration)
			defer cancel()
			stats := runLoad(ctx, baseURL, opts.mode, queries, concurrency)
			return printLoadReport(out, stats, duration)
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", "http://localhost:8080", "base URL of the search server")
	cmd.Flags().IntVar(&concurrency, "concurrency", 10, "concurrent workers")
	cmd.Flags().DurationVar(&duration, "duration", 30*time.Second, "test duration")
	return cmd
}

func runLoad(ctx context.Context, baseURL, mode string, queries []string, concurrency int) *loadStats {
	stats := newLoadStats()
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        concurrency * 2,
			MaxIdleConnsPerHost: concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	defer client.CloseIdleConnections()

	var wg sync.WaitGroup
	for w := range concurrency {
		wg.Go(func() {
			for i := w; ctx.Err() == nil; i++ {
				params := url.Values{"q": {queries[i%len(queries)]}}
				if mode != "" {
					params.Set("mode", mode)
				}
				req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/v1/search?"+params.Encode(), nil)
				if err != nil {
					stats.record(0, 0, err)
					return
				}
				start := time.Now()
				resp, err := client.Do(req)
				elapsed := time.Since(start)
				if err != nil {
					if ctx.Err() == nil {
						stats.record(elapsed, 0, err)
					}
					continue
				}
				var body struct {
					Results []json.RawMessage `json:"results"`
					Cached  bool              `json:"cached"`
				}
				if json.NewDecoder(resp.Body).Decode(&body) == nil {
					if body.Cached {
						stats.cacheHits.Add(1)
					}
					if len(body.Results) == 0 {
						stats.empty.Add(1)
					}
				}
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				stats.record(elapsed, resp.StatusCode, nil)
			}
		})
	}
	wg.Wait()
	return stats
}

func printLoadReport(w io.Writer, stats *loadStats, duration time.Duration) error {
	total := stats.total.Load()
	fmt.Fprintln(w, "=== Results ===")
	fmt.Fprintf(w, "Total Requests:  %d\n", total)
	fmt.Fprintf(w, "Successful:      %d\n", stats.success.Load())
	fmt.Fprintf(w, "Errors:          %d\n", stats.errors.Load())
	fmt.Fprintf(w, "Cache Hits:      %d\n", stats.cacheHits.Load())
	fmt.Fprintf(w, "Empty Results:   %d\n", stats.empty.Load())
	if total == 0 {
		return fmt.Errorf("no requests completed; is the server running?")
	}
	fmt.Fprintf(w, "Error Rate:      %.2f%%\n", float64(stats.errors.Load())/float64(total)*100)
	fmt.Fprintf(w, "Requests/sec:    %.2f\n", float64(total)/duration.Seconds())

	stats.mu.Lock()
	latencies := slices.Clone(stats.latencies)
	codes := make([]int, 0, len(stats.codes))
	for code := range stats.codes {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	stats.mu.Unlock()

	if len(latencies) > 0 {
		slices.Sort(latencies)
		var sum time.Duration
		for _, l := range latencies {
			sum += l
		}
		avg := sum / time.Duration(len(latencies))
		fmt.Fprintln(w, "\n=== Latency ===")
		fmt.Fprintf(w, "Min:    %s\n", latencies[0])
		fmt.Fprintf(w, "Avg:    %s\n", avg)
		fmt.Fprintf(w, "P50:    %s\n", percentile(latencies, 50))
		fmt.Fprintf(w, "P90:    %s\n", percentile(latencies, 90))
		fmt.Fprintf(w, "P99:    %s\n", percentile(latencies, 99))
		fmt.Fprintf(w, "Max:    %s\n", latencies[len(latencies)-1])
	}

	fmt.Fprintln(w, "\n=== Status Codes ===")
	for _, code := range codes {
		fmt.Fprintf(w, "  %d: %d\n", code, stats.codes[code])
	}
	return nil
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	return sorted[max(0, min(idx, len(sorted)-1))]
}
