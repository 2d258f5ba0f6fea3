package main

import (
	"flag"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/anacrolix/stm"
	"github.com/google/uuid"

	"tshard/internal/config"
	"tshard/internal/logging"
	"tshard/internal/snapshot"
	boltstore "tshard/internal/store/bolt"
	"tshard/pkg/tmap"
	"tshard/pkg/tset"
)

var snapshotBucket = []byte("bench")

func main() {
	configPath := flag.String("config", "", "path to config file")
	goroutines := flag.Int("goroutines", 0, "concurrent workers (overrides config)")
	ops := flag.Int("ops", 0, "operations per worker (overrides config)")
	setBuckets := flag.Int("set-buckets", 0, "set bucket count (overrides config)")
	mapBuckets := flag.Int("map-buckets", 0, "map bucket count (overrides config)")
	snapshotPath := flag.String("snapshot", "", "bbolt file to dump final map contents to (overrides config)")
	flag.Parse()

	// Load config (TOML file with defaults)
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// CLI flags override config file values
	if *goroutines > 0 {
		cfg.Workload.Goroutines = *goroutines
	}
	if *ops > 0 {
		cfg.Workload.Ops = *ops
	}
	if *setBuckets > 0 {
		cfg.Shard.SetBuckets = *setBuckets
	}
	if *mapBuckets > 0 {
		cfg.Shard.MapBuckets = *mapBuckets
	}
	if *snapshotPath != "" {
		cfg.Snapshot.Path = *snapshotPath
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger := logging.For("bench")

	set := tset.New[string](cfg.Shard.SetBuckets)
	kv := tmap.New[string, int](cfg.Shard.MapBuckets)
	total := cfg.Workload.Goroutines * cfg.Workload.Ops

	logger.Info("starting workload",
		"goroutines", cfg.Workload.Goroutines,
		"ops_per_worker", cfg.Workload.Ops,
		"set_buckets", cfg.Shard.SetBuckets,
		"map_buckets", cfg.Shard.MapBuckets)

	start := time.Now()
	var dupes atomic.Int64
	var wg sync.WaitGroup
	for g := 0; g < cfg.Workload.Goroutines; g++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < cfg.Workload.Ops; i++ {
				key := uuid.NewString()
				fresh := stm.Atomically(func(tx *stm.Tx) bool {
					return set.Insert(tx, key)
				})
				if !fresh {
					dupes.Add(1)
				}
				stm.Atomically(stm.VoidOperation(func(tx *stm.Tx) {
					kv.Put(tx, key, worker*cfg.Workload.Ops+i)
				}))
			}
		}(g)
	}
	wg.Wait()
	elapsed := time.Since(start)

	drained := stm.Atomically(func(tx *stm.Tx) []string {
		return set.Drain(tx)
	})
	entries := stm.Atomically(func(tx *stm.Tx) int {
		return kv.Len(tx)
	})

	logger.Info("workload done",
		"elapsed", elapsed,
		"tx_per_sec", int(float64(2*total)/elapsed.Seconds()),
		"set_drained", len(drained),
		"map_entries", entries,
		"duplicate_inserts", dupes.Load())

	if len(drained) != total {
		log.Fatalf("drain returned %d values, want %d", len(drained), total)
	}
	if entries != total {
		log.Fatalf("map holds %d entries, want %d", entries, total)
	}
	if dupes.Load() != 0 {
		log.Fatalf("%d uuid keys reported as duplicates", dupes.Load())
	}

	if cfg.Snapshot.Path != "" {
		st, err := boltstore.Open(cfg.Snapshot.Path)
		if err != nil {
			log.Fatalf("snapshot store: %v", err)
		}
		err = snapshot.Save(st, snapshotBucket, kv, snapshot.JSONCodec[string, int]{})
		if cerr := st.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			log.Fatalf("snapshot: %v", err)
		}
		logger.Info("snapshot written", "path", cfg.Snapshot.Path, "entries", entries)
	}
}
