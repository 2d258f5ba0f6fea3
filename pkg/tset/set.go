// Package tset provides a transaction-ready hash set with a configurable but
// fixed number of buckets. Elements are partitioned across independent
// transactional variables, so transactions touching unrelated elements rarely
// conflict. All transactional methods must run inside stm.Atomically; conflict
// detection and re-execution belong entirely to the engine.
package tset

import (
	"github.com/anacrolix/stm"

	"tshard/internal/routing"
)

// Set is a sharded transactional hash set. Each bucket is one stm.Var owning
// a disjoint subset of the elements; an element's bucket is fixed for the
// Set's lifetime. Safe for concurrent use from multiple transactions.
type Set[T comparable] struct {
	hasher  routing.Hasher[T]
	buckets []*stm.Var[map[T]struct{}]
}

// New creates an empty Set with the given number of buckets.
// Panics if bucketCount < 1.
func New[T comparable](bucketCount int) *Set[T] {
	if bucketCount < 1 {
		panic("tset: bucket count must be at least 1")
	}
	s := &Set[T]{
		hasher:  routing.NewHasher[T](),
		buckets: make([]*stm.Var[map[T]struct{}], bucketCount),
	}
	for i := range s.buckets {
		s.buckets[i] = stm.NewVar(map[T]struct{}{})
	}
	return s
}

// BucketCount returns the fixed number of buckets.
func (s *Set[T]) BucketCount() int {
	return len(s.buckets)
}

func (s *Set[T]) bucketFor(value T) *stm.Var[map[T]struct{}] {
	return s.buckets[s.hasher.Bucket(value, len(s.buckets))]
}

// Insert adds value to the set. Returns true if the value was not present
// before, false if it already was. A value that is already present causes no
// write at all, so repeated inserts of the same value do not widen the
// transaction's write set.
//
// The membership check reads the bucket through the transaction rather than
// through an atomic probe, so the check and the write share one conflict set:
// two transactions racing on the same value serialize through the engine and
// exactly one of them observes the insert.
func (s *Set[T]) Insert(tx *stm.Tx, value T) bool {
	b := s.bucketFor(value)
	cur := b.Get(tx)
	if _, ok := cur[value]; ok {
		return false
	}
	next := make(map[T]struct{}, len(cur)+1)
	for v := range cur {
		next[v] = struct{}{}
	}
	next[value] = struct{}{}
	b.Set(tx, next)
	return true
}

// Contains reports whether value is in the set, as observed by tx.
func (s *Set[T]) Contains(tx *stm.Tx, value T) bool {
	_, ok := s.bucketFor(value).Get(tx)[value]
	return ok
}

// ContainsAtomic reports whether value is in the set using the engine's
// non-transactional snapshot read. Weaker than Contains: the answer is
// consistent only with respect to the one bucket at the moment of the read
// and participates in no conflict set. Useful as a cheap pre-check outside
// a transaction.
func (s *Set[T]) ContainsAtomic(value T) bool {
	_, ok := stm.AtomicGet(s.bucketFor(value))[value]
	return ok
}

// Remove deletes value from the set. Returns true if it was present.
func (s *Set[T]) Remove(tx *stm.Tx, value T) bool {
	b := s.bucketFor(value)
	cur := b.Get(tx)
	if _, ok := cur[value]; !ok {
		return false
	}
	next := make(map[T]struct{}, len(cur)-1)
	for v := range cur {
		if v != value {
			next[v] = struct{}{}
		}
	}
	b.Set(tx, next)
	return true
}

// Len returns the total number of elements across all buckets, as observed
// by tx.
func (s *Set[T]) Len(tx *stm.Tx) int {
	n := 0
	for _, b := range s.buckets {
		n += len(b.Get(tx))
	}
	return n
}

// Drain empties every bucket and returns all elements that were present.
// Buckets are visited in ascending index order; element order within a bucket
// is unspecified. Afterwards the set is empty but remains valid, and future
// inserts repopulate it normally. Buckets that are already empty are read but
// not rewritten.
func (s *Set[T]) Drain(tx *stm.Tx) []T {
	var out []T
	for _, b := range s.buckets {
		cur := b.Get(tx)
		if len(cur) == 0 {
			continue
		}
		for v := range cur {
			out = append(out, v)
		}
		b.Set(tx, map[T]struct{}{})
	}
	return out
}
