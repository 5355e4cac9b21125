package cuemap

import (
	"sync"
)

// MemoryStore is the primary-key map from record id to record. It is
// sharded by id hash so that independent records can be mutated
// concurrently without contending on a single global lock, and it
// returns defensive clones on read so a caller never observes a
// torn/partial mutation.
type MemoryStore struct {
	shards []*storeShard
}

type storeShard struct {
	mu      sync.RWMutex
	records map[string]*MemoryRecord
}

func NewMemoryStore(shardCount int) *MemoryStore {
	if shardCount < 1 {
		shardCount = defaultShardCount
	}
	shards := make([]*storeShard, shardCount)
	for i := range shards {
		shards[i] = &storeShard{records: make(map[string]*MemoryRecord)}
	}
	return &MemoryStore{shards: shards}
}

func (s *MemoryStore) shardFor(id string) *storeShard {
	h := fnvHashString(id)
	return s.shards[h%uint64(len(s.shards))]
}

func fnvHashString(s string) uint64 {
	const offset64 = 14695981039346656037
	const prime64 = 1099511628211
	var h uint64 = offset64
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime64
	}
	return h
}

// Put inserts or replaces a record by id. The store takes ownership of
// rec; callers must not mutate it afterward.
func (s *MemoryStore) Put(rec *MemoryRecord) {
	sh := s.shardFor(rec.ID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.records[rec.ID] = rec
}

// Get returns a clone of the record for id, or nil if absent.
func (s *MemoryStore) Get(id string) *MemoryRecord {
	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	rec, ok := sh.records[id]
	if !ok {
		return nil
	}
	return rec.clone()
}

// Mutate runs fn against the live record for id under the shard's write
// lock, allowing in-place mutation (reinforcement counters, salience
// recompute) without a clone round-trip. fn must not retain rec beyond
// the call. Returns false if id is absent.
func (s *MemoryStore) Mutate(id string, fn func(rec *MemoryRecord)) bool {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	rec, ok := sh.records[id]
	if !ok {
		return false
	}
	fn(rec)
	return true
}

// Delete removes a record by id.
func (s *MemoryStore) Delete(id string) {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	delete(sh.records, id)
}

// Len returns the total number of stored records.
func (s *MemoryStore) Len() int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.records)
		sh.mu.RUnlock()
	}
	return total
}

// All returns clones of every stored record. Used by consolidation and
// snapshotting, both of which tolerate a point-in-time-ish view (no
// global lock is taken across shards).
func (s *MemoryStore) All() []*MemoryRecord {
	out := make([]*MemoryRecord, 0, s.Len())
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, rec := range sh.records {
			out = append(out, rec.clone())
		}
		sh.mu.RUnlock()
	}
	return out
}
