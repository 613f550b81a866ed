package dedup

import (
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
)

func BenchmarkFindDuplicates(b *testing.B) {
	for _, size := range []int{1000, 10000} {
		b.Run(fmt.Sprintf("docs=%d", size), func(b *testing.B) {
			e, err := indexer.NewEngineFromText("and with", config.EngineConfig{})
			if err != nil {
				b.Fatal(err)
			}
			for id := range size {
				// Every fourth document repeats an earlier term set.
				text := fmt.Sprintf("pet w%d rat w%d", id/4, id%97)
				if err := e.AddDocument(id, text, index.StatusActive, []int{1}); err != nil {
					b.Fatal(err)
				}
			}
			b.ReportAllocs()
			for b.Loop() {
				_ = FindDuplicates(e)
			}
		})
	}
}
