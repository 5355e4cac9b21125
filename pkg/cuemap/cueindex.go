package cuemap

import (
	"container/list"
	"hash/fnv"
	"sort"
	"sync"
)

const defaultShardCount = 16

// orderedSet is a doubly-linked list of ids plus a map to each element,
// giving O(1) insert/move-to-front/remove while preserving recency
// order. Swap-remove is deliberately not used: it would scramble order.
type orderedSet struct {
	order *list.List
	elems map[string]*list.Element
}

func newOrderedSet() *orderedSet {
	return &orderedSet{order: list.New(), elems: make(map[string]*list.Element)}
}

func (s *orderedSet) moveToFront(id string) {
	if e, ok := s.elems[id]; ok {
		s.order.MoveToFront(e)
		return
	}
	e := s.order.PushFront(id)
	s.elems[id] = e
}

func (s *orderedSet) remove(id string) {
	if e, ok := s.elems[id]; ok {
		s.order.Remove(e)
		delete(s.elems, id)
	}
}

func (s *orderedSet) contains(id string) bool {
	_, ok := s.elems[id]
	return ok
}

func (s *orderedSet) len() int {
	return s.order.Len()
}

// ids returns ids in front-to-back (most- to least-recently reinforced) order.
func (s *orderedSet) ids() []string {
	out := make([]string, 0, s.order.Len())
	for e := s.order.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(string))
	}
	return out
}

// cueShard holds the postings lists for the cues hashed into it.
type cueShard struct {
	mu       sync.RWMutex
	postings map[Cue]*orderedSet
}

// CueIndex is the inverted, sharded cue -> record-id-list index.
// Sharding hashes the cue with FNV-1a and takes it modulo a fixed shard
// count: the shard count never changes at runtime, so a direct modulo
// suffices — no sorted-key ring or virtual nodes are needed.
type CueIndex struct {
	shards []*cueShard
}

func NewCueIndex(shardCount int) *CueIndex {
	if shardCount < 1 {
		shardCount = defaultShardCount
	}
	shards := make([]*cueShard, shardCount)
	for i := range shards {
		shards[i] = &cueShard{postings: make(map[Cue]*orderedSet)}
	}
	return &CueIndex{shards: shards}
}

func (idx *CueIndex) shardFor(c Cue) *cueShard {
	h := fnv.New64a()
	_, _ = h.Write([]byte(c))
	return idx.shards[h.Sum64()%uint64(len(idx.shards))]
}

// shardIndexFor returns the shard's position, used to acquire shards for
// a multi-cue operation in a fixed ascending order to avoid deadlock.
func (idx *CueIndex) shardIndexFor(c Cue) int {
	h := fnv.New64a()
	_, _ = h.Write([]byte(c))
	return int(h.Sum64() % uint64(len(idx.shards)))
}

// sortedShardIndexes returns the distinct shard indexes touched by cues,
// sorted ascending, so callers can lock in a fixed global order.
func (idx *CueIndex) sortedShardIndexes(cues []Cue) []int {
	seen := make(map[int]struct{}, len(cues))
	for _, c := range cues {
		seen[idx.shardIndexFor(c)] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for i := range seen {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Attach inserts id into cue's postings list at the front (most recent).
func (idx *CueIndex) Attach(c Cue, id string) {
	sh := idx.shardFor(c)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	set, ok := sh.postings[c]
	if !ok {
		set = newOrderedSet()
		sh.postings[c] = set
	}
	set.moveToFront(id)
}

// Detach removes id from cue's postings list.
func (idx *CueIndex) Detach(c Cue, id string) {
	sh := idx.shardFor(c)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if set, ok := sh.postings[c]; ok {
		set.remove(id)
		if set.len() == 0 {
			delete(sh.postings, c)
		}
	}
}

// Reinforce moves id to the front of cue's postings list (I2: recency
// order is maintained by move-to-front, never by re-sorting).
func (idx *CueIndex) Reinforce(c Cue, id string) {
	idx.Attach(c, id)
}

// Contains reports whether id is currently posted under cue.
func (idx *CueIndex) Contains(c Cue, id string) bool {
	sh := idx.shardFor(c)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return idx.containsLocked(c, id)
}

// containsLocked is Contains without acquiring the shard lock itself —
// callers must already hold it, e.g. from within WithCues.
func (idx *CueIndex) containsLocked(c Cue, id string) bool {
	sh := idx.shardFor(c)
	set, ok := sh.postings[c]
	if !ok {
		return false
	}
	return set.contains(id)
}

// Len returns the posting-list length for cue (used for driver selection).
func (idx *CueIndex) Len(c Cue) int {
	sh := idx.shardFor(c)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return idx.lenLocked(c)
}

// lenLocked is Len without acquiring the shard lock itself — callers
// must already hold it, e.g. from within WithCues.
func (idx *CueIndex) lenLocked(c Cue) int {
	sh := idx.shardFor(c)
	set, ok := sh.postings[c]
	if !ok {
		return 0
	}
	return set.len()
}

// Cues returns every distinct cue currently posted in the index, used
// by the /stats endpoint.
func (idx *CueIndex) Cues() []Cue {
	var out []Cue
	for _, sh := range idx.shards {
		sh.mu.RLock()
		for cue := range sh.postings {
			out = append(out, cue)
		}
		sh.mu.RUnlock()
	}
	return out
}

// IDs returns the posting list for cue in recency order (front = most
// recently reinforced).
func (idx *CueIndex) IDs(c Cue) []string {
	sh := idx.shardFor(c)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return idx.idsLocked(c)
}

// idsLocked is IDs without acquiring the shard lock itself — callers
// must already hold it, e.g. from within WithCues.
func (idx *CueIndex) idsLocked(c Cue) []string {
	sh := idx.shardFor(c)
	set, ok := sh.postings[c]
	if !ok {
		return nil
	}
	return set.ids()
}

// snapshotPostings returns every cue's posting list in recency order,
// used by snapshot Save.
func (idx *CueIndex) snapshotPostings() map[Cue][]string {
	out := make(map[Cue][]string)
	for _, sh := range idx.shards {
		sh.mu.RLock()
		for cue, set := range sh.postings {
			out[cue] = set.ids()
		}
		sh.mu.RUnlock()
	}
	return out
}

// loadPostings replaces the index contents wholesale, used by snapshot
// Load. ids for each cue are given front-to-back (most recent first).
func (idx *CueIndex) loadPostings(postings map[Cue][]string) {
	for _, sh := range idx.shards {
		sh.mu.Lock()
		sh.postings = make(map[Cue]*orderedSet)
		sh.mu.Unlock()
	}
	for cue, ids := range postings {
		sh := idx.shardFor(cue)
		sh.mu.Lock()
		set := newOrderedSet()
		for i := len(ids) - 1; i >= 0; i-- {
			set.moveToFront(ids[i])
		}
		sh.postings[cue] = set
		sh.mu.Unlock()
	}
}

// WithCues locks every shard touched by cues, in fixed ascending shard
// order, then runs fn. Recall holds its query cues' shards for the
// whole driver-select-and-probe phase this way, so a concurrent
// Attach/Reinforce/Detach touching the same cues can't interleave
// mid-probe and produce a torn read; callers inside fn must use the
// *Locked accessors (containsLocked, lenLocked, idsLocked) rather than
// the public locking ones, which would re-lock a shard already held
// here.
func (idx *CueIndex) WithCues(cues []Cue, fn func()) {
	indexes := idx.sortedShardIndexes(cues)
	for _, i := range indexes {
		idx.shards[i].mu.RLock()
		defer idx.shards[i].mu.RUnlock()
	}
	fn()
}
