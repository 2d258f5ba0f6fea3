// Package tmap provides a transaction-ready hash map with a configurable but
// fixed number of buckets. Keys are partitioned across independent
// transactional variables so that transactions touching unrelated keys rarely
// conflict. Transactional methods must run inside stm.Atomically.
package tmap

import (
	"github.com/anacrolix/stm"

	"tshard/internal/routing"
)

// Map is a sharded transactional hash map. Each bucket is one stm.Var owning
// a disjoint key range determined by the Map's router; a key's bucket never
// changes for the Map's lifetime. Safe for concurrent use from multiple
// transactions.
type Map[K comparable, V any] struct {
	hasher  routing.Hasher[K]
	buckets []*stm.Var[map[K]V]
}

// New creates an empty Map with the given number of buckets.
// Panics if bucketCount < 1.
func New[K comparable, V any](bucketCount int) *Map[K, V] {
	if bucketCount < 1 {
		panic("tmap: bucket count must be at least 1")
	}
	m := &Map[K, V]{
		hasher:  routing.NewHasher[K](),
		buckets: make([]*stm.Var[map[K]V], bucketCount),
	}
	for i := range m.buckets {
		m.buckets[i] = stm.NewVar(map[K]V{})
	}
	return m
}

// FromMap builds a Map holding the entries of src, partitioned across
// bucketCount buckets. The partitioning happens outside any transaction and
// each bucket is wrapped in a transactional variable exactly once, so bulk
// construction costs no per-entry transaction overhead. The caller must not
// share the Map until FromMap returns. src is not retained.
// Panics if bucketCount < 1.
func FromMap[K comparable, V any](src map[K]V, bucketCount int) *Map[K, V] {
	if bucketCount < 1 {
		panic("tmap: bucket count must be at least 1")
	}
	hasher := routing.NewHasher[K]()
	groups := make([]map[K]V, bucketCount)
	hint := len(src) / bucketCount
	for i := range groups {
		groups[i] = make(map[K]V, hint)
	}
	for k, v := range src {
		groups[hasher.Bucket(k, bucketCount)][k] = v
	}

	m := &Map[K, V]{
		hasher:  hasher,
		buckets: make([]*stm.Var[map[K]V], bucketCount),
	}
	for i := range m.buckets {
		m.buckets[i] = stm.NewVar(groups[i])
	}
	return m
}

// BucketCount returns the fixed number of buckets.
func (m *Map[K, V]) BucketCount() int {
	return len(m.buckets)
}

// Bucket returns the transactional variable owning key. It is an escape
// hatch for compound operations the Map does not provide, such as
// conditional updates spanning several reads. The map value read from the
// variable is shared: callers must never mutate it in place, and must write
// back a fresh map when changing it.
func (m *Map[K, V]) Bucket(key K) *stm.Var[map[K]V] {
	return m.buckets[m.hasher.Bucket(key, len(m.buckets))]
}

// Get returns the value for key as observed by tx.
func (m *Map[K, V]) Get(tx *stm.Tx, key K) (V, bool) {
	v, ok := m.Bucket(key).Get(tx)[key]
	return v, ok
}

// Put sets the value for key.
func (m *Map[K, V]) Put(tx *stm.Tx, key K, value V) {
	b := m.Bucket(key)
	cur := b.Get(tx)
	next := make(map[K]V, len(cur)+1)
	for k, v := range cur {
		next[k] = v
	}
	next[key] = value
	b.Set(tx, next)
}

// Delete removes key. Returns true if it was present.
func (m *Map[K, V]) Delete(tx *stm.Tx, key K) bool {
	b := m.Bucket(key)
	cur := b.Get(tx)
	if _, ok := cur[key]; !ok {
		return false
	}
	next := make(map[K]V, len(cur)-1)
	for k, v := range cur {
		if k != key {
			next[k] = v
		}
	}
	b.Set(tx, next)
	return true
}

// Len returns the total number of entries across all buckets, as observed
// by tx.
func (m *Map[K, V]) Len(tx *stm.Tx) int {
	n := 0
	for _, b := range m.buckets {
		n += len(b.Get(tx))
	}
	return n
}

// IsEmpty reports whether the map holds no entries. Every bucket is read
// through tx in ascending index order, stopping at the first nonempty one;
// because all reads share the transaction, the answer reflects one
// consistent snapshot across buckets.
func (m *Map[K, V]) IsEmpty(tx *stm.Tx) bool {
	for _, b := range m.buckets {
		if len(b.Get(tx)) > 0 {
			return false
		}
	}
	return true
}

// Contents returns all entries as one map, reading each bucket with the
// engine's non-transactional snapshot read. Each bucket is internally
// consistent but the union is not a single point-in-time view of the whole
// Map: writes committed while Contents runs may appear in some buckets and
// not others. Use IsEmpty or a transaction over Bucket handles when a
// cross-bucket consistent view is required.
func (m *Map[K, V]) Contents() map[K]V {
	out := make(map[K]V)
	for _, b := range m.buckets {
		for k, v := range stm.AtomicGet(b) {
			out[k] = v
		}
	}
	return out
}
