// Package concmap provides an additive map partitioned into independently
// locked shards. Writers touching keys in different shards never contend.
// Drain must only be called once all writers have finished.
package concmap

import (
	"cmp"
	"hash/maphash"
	"maps"
	"slices"
	"sync"
)

// DefaultShards is used when New is given a non-positive shard count.
const DefaultShards = 16

// Number is the set of value types the map can accumulate.
type Number interface {
	~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64 | ~float32 | ~float64
}

type shard[K comparable, V Number] struct {
	mu     sync.Mutex
	values map[K]V
}

// Map is a sharded additive map. The zero value is not usable; call New.
type Map[K comparable, V Number] struct {
	seed   maphash.Seed
	shards []shard[K, V]
}

// New returns an empty map with the given shard count, or DefaultShards
// when shards is not positive.
func New[K comparable, V Number](shards int) *Map[K, V] {
	if shards <= 0 {
		shards = DefaultShards
	}
	m := &Map[K, V]{
		seed:   maphash.MakeSeed(),
		shards: make([]shard[K, V], shards),
	}
	for i := range m.shards {
		m.shards[i].values = make(map[K]V)
	}
	return m
}

func (m *Map[K, V]) shardFor(key K) *shard[K, V] {
	h := maphash.Comparable(m.seed, key)
	return &m.shards[h%uint64(len(m.shards))]
}

// Add adds delta to the value stored under key, creating it at zero first.
func (m *Map[K, V]) Add(key K, delta V) {
	s := m.shardFor(key)
	s.mu.Lock()
	s.values[key] += delta
	s.mu.Unlock()
}

// Erase removes key. It is a no-op if the key is absent.
func (m *Map[K, V]) Erase(key K) {
	s := m.shardFor(key)
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
}

// Load returns the value under key.
func (m *Map[K, V]) Load(key K) (V, bool) {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Len returns the number of keys across all shards. It is only a snapshot
// while writers are active.
func (m *Map[K, V]) Len() int {
	n := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		n += len(s.values)
		s.mu.Unlock()
	}
	return n
}

// Drain merges every shard into one ordinary map and leaves the Map empty.
func (m *Map[K, V]) Drain() map[K]V {
	out := make(map[K]V)
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		maps.Copy(out, s.values)
		s.values = make(map[K]V)
		s.mu.Unlock()
	}
	return out
}

// SortedKeys returns the keys of a drained map in ascending order.
func SortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	return slices.Sorted(maps.Keys(m))
}
