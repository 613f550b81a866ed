package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/execution"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
)

var benchWords = []string{"funny", "pet", "nasty", "rat", "curly", "hair", "very", "cat", "dog", "garden"}

func benchService(b *testing.B, size int) *Service {
	b.Helper()
	e, err := indexer.NewEngineFromText("and with", config.EngineConfig{Workers: 4, AccumulatorShards: 16})
	if err != nil {
		b.Fatal(err)
	}
	s := New(e, Options{WindowSize: 1440, BatchConcurrency: 8})
	ctx := context.Background()
	for id := range size {
		text := fmt.Sprintf("%s %s and %s",
			benchWords[id%len(benchWords)],
			benchWords[(id/3)%len(benchWords)],
			benchWords[(id/7)%len(benchWords)])
		if err := s.AddDocument(ctx, Document{ID: id, Text: text, Ratings: []int{id % 10}}); err != nil {
			b.Fatal(err)
		}
	}
	return s
}

// BenchmarkSearch measures end-to-end search latency in both execution modes.
func BenchmarkSearch(b *testing.B) {
	s := benchService(b, 10000)
	ctx := context.Background()
	for _, mode := range []execution.Mode{execution.Sequential, execution.Parallel} {
		b.Run(mode.String(), func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				if _, err := s.Search(ctx, SearchRequest{Query: "funny pet -rat", Mode: mode}); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkSearchParallel measures concurrent read throughput under the
// service read lock.
func BenchmarkSearchParallel(b *testing.B) {
	s := benchService(b, 10000)
	ctx := context.Background()
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := s.Search(ctx, SearchRequest{Query: "curly hair"}); err != nil {
				b.Error(err)
				return
			}
		}
	})
}
