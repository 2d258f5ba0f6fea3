// Package snapshot persists the contents of a transactional map to a
// store.Store and rebuilds maps from persisted snapshots.
package snapshot

import (
	"encoding/json"
	"fmt"

	"tshard/internal/logging"
	"tshard/internal/store"
	"tshard/pkg/tmap"
)

var logger = logging.For("snapshot")

// Codec converts keys and values to and from their stored byte form.
type Codec[K comparable, V any] interface {
	EncodeKey(K) ([]byte, error)
	DecodeKey([]byte) (K, error)
	EncodeValue(V) ([]byte, error)
	DecodeValue([]byte) (V, error)
}

// JSONCodec encodes keys and values as JSON. Key types must produce distinct
// encodings for distinct keys, which holds for strings, integers and other
// scalar types.
type JSONCodec[K comparable, V any] struct{}

func (JSONCodec[K, V]) EncodeKey(k K) ([]byte, error)   { return json.Marshal(k) }
func (JSONCodec[K, V]) EncodeValue(v V) ([]byte, error) { return json.Marshal(v) }

func (JSONCodec[K, V]) DecodeKey(b []byte) (K, error) {
	var k K
	err := json.Unmarshal(b, &k)
	return k, err
}

func (JSONCodec[K, V]) DecodeValue(b []byte) (V, error) {
	var v V
	err := json.Unmarshal(b, &v)
	return v, err
}

// Save writes the map's contents into the given store bucket, replacing
// whatever snapshot was there before. The contents are gathered with the
// map's non-transactional aggregate read, so a snapshot taken while writers
// are active is consistent per map bucket but not across the whole map;
// quiesce writers first when that matters.
func Save[K comparable, V any](st store.Store, bucket []byte, m *tmap.Map[K, V], c Codec[K, V]) error {
	if err := st.Drop(bucket); err != nil {
		return fmt.Errorf("clearing snapshot bucket: %w", err)
	}
	entries := m.Contents()
	for k, v := range entries {
		kb, err := c.EncodeKey(k)
		if err != nil {
			return fmt.Errorf("encoding key: %w", err)
		}
		vb, err := c.EncodeValue(v)
		if err != nil {
			return fmt.Errorf("encoding value: %w", err)
		}
		if err := st.Put(bucket, kb, vb); err != nil {
			return fmt.Errorf("writing snapshot entry: %w", err)
		}
	}
	logger.Info("saved snapshot", "bucket", string(bucket), "entries", len(entries))
	return nil
}

// Load rebuilds a transactional map from the snapshot in the given store
// bucket, partitioned across bucketCount buckets via bulk construction.
// Entries that fail to decode are skipped with a warning rather than failing
// the whole load, matching the store's role as a cache of last known state.
func Load[K comparable, V any](st store.Store, bucket []byte, bucketCount int, c Codec[K, V]) (*tmap.Map[K, V], error) {
	entries := make(map[K]V)
	err := st.ForEach(bucket, func(key, value []byte) error {
		k, kerr := c.DecodeKey(key)
		if kerr != nil {
			logger.Warn("skipping corrupt snapshot key", "err", kerr)
			return nil
		}
		v, verr := c.DecodeValue(value)
		if verr != nil {
			logger.Warn("skipping corrupt snapshot entry", "err", verr)
			return nil
		}
		entries[k] = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tmap.FromMap(entries, bucketCount), nil
}
