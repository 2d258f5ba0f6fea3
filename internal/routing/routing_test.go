package routing

import (
	"fmt"
	"testing"
)

func TestBucketDeterministic(t *testing.T) {
	h := NewHasher[string]()
	for _, n := range []int{1, 2, 7, 64, 1000} {
		first := h.Bucket("some-key", n)
		for i := 0; i < 100; i++ {
			if got := h.Bucket("some-key", n); got != first {
				t.Fatalf("n=%d: route changed from %d to %d", n, first, got)
			}
		}
	}
}

func TestBucketInRange(t *testing.T) {
	h := NewHasher[int]()
	for _, n := range []int{1, 3, 16, 1000} {
		for v := 0; v < 500; v++ {
			idx := h.Bucket(v, n)
			if idx < 0 || idx >= n {
				t.Fatalf("n=%d v=%d: index %d out of range", n, v, idx)
			}
		}
	}
}

func TestBucketSingleBucket(t *testing.T) {
	h := NewHasher[string]()
	for i := 0; i < 50; i++ {
		if got := h.Bucket(fmt.Sprintf("key-%d", i), 1); got != 0 {
			t.Fatalf("single bucket must always route to 0, got %d", got)
		}
	}
}

func TestBucketSpread(t *testing.T) {
	// Not a hash-quality test, just a sanity check that many distinct keys
	// do not all land in one bucket.
	h := NewHasher[string]()
	const n = 16
	hit := make(map[int]bool)
	for i := 0; i < 1000; i++ {
		hit[h.Bucket(fmt.Sprintf("key-%d", i), n)] = true
	}
	if len(hit) < n/2 {
		t.Fatalf("1000 keys hit only %d of %d buckets", len(hit), n)
	}
}

func TestBucketZeroCountPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Bucket with n=0 should panic")
		}
	}()
	h := NewHasher[string]()
	h.Bucket("key", 0)
}
