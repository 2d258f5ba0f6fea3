// Package routing maps keys to bucket indices for the sharded containers.
//
// A Hasher is created once per container and carries its own hash seed, so a
// key routes to the same bucket for the container's whole lifetime. Route
// stability is what keeps every key in exactly one bucket; two containers may
// route the same key differently and that is fine.
package routing

import "hash/maphash"

// Hasher routes values of type T to one of a fixed number of buckets.
// The zero value is not usable; create one with NewHasher.
type Hasher[T comparable] struct {
	seed maphash.Seed
}

// NewHasher returns a Hasher with a fresh random seed.
func NewHasher[T comparable]() Hasher[T] {
	return Hasher[T]{seed: maphash.MakeSeed()}
}

// Bucket returns the bucket index for v in [0, n).
// Deterministic for a given Hasher: same v and n always yield the same index.
// Panics if n < 1, since routing is undefined without at least one bucket.
func (h Hasher[T]) Bucket(v T, n int) int {
	if n < 1 {
		panic("routing: bucket count must be at least 1")
	}
	return int(maphash.Comparable(h.seed, v) % uint64(n))
}
