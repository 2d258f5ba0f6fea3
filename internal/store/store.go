package store

// Store is an abstract byte-oriented key-value store organized in named
// buckets. The initial implementation uses bbolt; the interface allows
// swapping to Badger, Pebble, SQLite, etc. without touching the snapshot
// layer.
type Store interface {
	Get(bucket, key []byte) ([]byte, error)
	Put(bucket, key, value []byte) error
	Delete(bucket, key []byte) error
	// Drop removes the whole bucket and everything in it.
	Drop(bucket []byte) error
	ForEach(bucket []byte, fn func(key, value []byte) error) error
	Close() error
}
