package store

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/google/btree"
)

// BadValue is the legacy "no value" sentinel. Values within 0.01 of it are
// treated as invalid, as are NaN and infinities.
const BadValue float32 = -999999

// MaxItemIndex is the largest item index a record can hold.
const MaxItemIndex = math.MaxInt16

var (
	// ErrInvalidStoreConfig is returned by New for unusable sizes or tolerances
	ErrInvalidStoreConfig = errors.New("invalid store configuration")
)

// IsBadValue reports whether v cannot be stored.
func IsBadValue(v float32) bool {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return true
	}
	return math.Abs(f-float64(BadValue)) < 0.01
}

// Record is one retained collection: its total value, its insertion sequence
// number (the tie-break between equal values) and its item indices.
type Record struct {
	Value float32
	Seq   uint64
	Items []int16
}

// Ints returns the record's items as ints.
func (r Record) Ints() []int {
	out := make([]int, len(r.Items))
	for i, item := range r.Items {
		out[i] = int(item)
	}
	return out
}

// entry is the ordered-index key of an occupied slot.
type entry struct {
	value float32
	seq   uint64
	h     handle
}

// ranked orders by descending value, then ascending sequence number.
func ranked(a, b entry) bool {
	if a.value != b.value {
		return a.value > b.value
	}
	return a.seq < b.seq
}

// CollectionStore keeps the best collections found so far, up to a capacity.
// Every exported method is safe for concurrent use.
type CollectionStore struct {
	mu          sync.Mutex
	width       int
	blockSize   int
	maxRetained int
	tolerance   float32

	arena *arena
	order *btree.BTreeG[entry]
	seq   uint64

	requests int64
	maxValue float32
	hasMax   bool
	minValue float32
	hasMin   bool

	iterReady bool
	cursor    entry
	hasCursor bool
}

// New creates a store for collections of width items. maxRetained == 0 means unlimited.
func New(width, blockSize, maxRetained int, tolerance float32) (*CollectionStore, error) {
	if width < 0 || blockSize <= 0 || maxRetained < 0 {
		return nil, fmt.Errorf("%w: width=%d blockSize=%d maxRetained=%d", ErrInvalidStoreConfig, width, blockSize, maxRetained)
	}
	if tolerance < 0 || math.IsNaN(float64(tolerance)) {
		return nil, fmt.Errorf("%w: tolerance %v", ErrInvalidStoreConfig, tolerance)
	}
	return &CollectionStore{
		width:       width,
		blockSize:   blockSize,
		maxRetained: maxRetained,
		tolerance:   tolerance,
		arena:       newArena(blockSize, width),
		order:       btree.NewG[entry](32, ranked),
	}, nil
}

// Width returns the number of items in every record.
func (s *CollectionStore) Width() int { return s.width }

func (s *CollectionStore) full() bool {
	return s.maxRetained > 0 && s.order.Len() >= s.maxRetained
}

func (s *CollectionStore) floor() (float32, bool) {
	if !s.hasMax {
		return 0, false
	}
	return s.maxValue * (1 - s.tolerance), true
}

func (s *CollectionStore) canAdd(v float32) bool {
	if IsBadValue(v) {
		return false
	}
	if f, ok := s.floor(); ok && v < f {
		return false
	}
	if s.full() && s.hasMin && v <= s.minValue {
		return false
	}
	return true
}

// CanAdd reports whether a collection of value v would currently be accepted.
func (s *CollectionStore) CanAdd(v float32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canAdd(v)
}

// Add inserts a collection. It returns false when items has the wrong length
// or out-of-range indices, or when CanAdd(value) is false.
func (s *CollectionStore) Add(items []int, value float32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests++
	if items == nil || len(items) != s.width {
		return false
	}
	for _, item := range items {
		if item < 0 || item > MaxItemIndex {
			return false
		}
	}
	if !s.canAdd(value) {
		return false
	}

	if s.full() {
		s.gc()
	}
	var h handle
	if s.full() {
		lowest, _ := s.order.DeleteMax()
		h = lowest.h
	} else {
		h = s.arena.alloc()
	}

	s.seq++
	s.arena.write(h, value, s.seq, items)
	s.order.ReplaceOrInsert(entry{value: value, seq: s.seq, h: h})

	if !s.hasMax || value > s.maxValue {
		s.maxValue = value
		s.hasMax = true
	}
	last, _ := s.order.Max()
	s.minValue = last.value
	s.hasMin = true
	return true
}

// gc evicts every record below the floor, lowest first. Caller holds mu.
func (s *CollectionStore) gc() {
	f, ok := s.floor()
	if !ok || !s.hasMin || s.minValue >= f {
		return
	}
	for s.order.Len() > 0 {
		last, _ := s.order.Max()
		if last.value >= f {
			s.minValue = last.value
			return
		}
		s.order.DeleteMax()
		s.arena.release(last.h)
	}
	s.hasMin = false
}

// InitResultIterator evicts records below the floor and rewinds the result
// cursor to the best record. It must be called before the first GetResults.
func (s *CollectionStore) InitResultIterator() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gc()
	s.iterReady = true
	s.hasCursor = false
}

// next visits up to n records after the cursor, advancing it.
func (s *CollectionStore) next(n int, visit func(e entry)) int {
	copied := 0
	fn := func(e entry) bool {
		if s.hasCursor && e.seq == s.cursor.seq && e.value == s.cursor.value {
			return true
		}
		if copied >= n {
			return false
		}
		visit(e)
		copied++
		s.cursor = e
		s.hasCursor = true
		return true
	}
	if s.hasCursor {
		s.order.AscendGreaterOrEqual(s.cursor, fn)
	} else {
		s.order.Ascend(fn)
	}
	return copied
}

// GetResults copies up to n records from the cursor into outItems and
// outValues in ranked order. It returns the number copied, 0 when the results
// are exhausted (or the iterator was never initialized), and -1 when n <= 0 or
// the buffers cannot hold n records.
func (s *CollectionStore) GetResults(n int, outItems [][]int, outValues []float32) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n <= 0 || outItems == nil || outValues == nil {
		return -1
	}
	if len(outItems) < n || len(outValues) < n {
		return -1
	}
	for _, row := range outItems[:n] {
		if len(row) < s.width {
			return -1
		}
	}
	if !s.iterReady {
		return 0
	}

	i := 0
	return s.next(n, func(e entry) {
		for j, item := range s.arena.items(e.h) {
			outItems[i][j] = int(item)
		}
		outValues[i] = e.value
		i++
	})
}

// Records pages like GetResults but returns copies of the records.
func (s *CollectionStore) Records(n int) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n <= 0 || !s.iterReady {
		return nil
	}
	var out []Record
	s.next(n, func(e entry) {
		out = append(out, s.record(e))
	})
	return out
}

// Range returns up to limit records starting at rank offset without moving the cursor.
func (s *CollectionStore) Range(offset, limit int) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	if offset < 0 || limit <= 0 {
		return nil
	}
	var out []Record
	rank := 0
	s.order.Ascend(func(e entry) bool {
		if rank >= offset {
			out = append(out, s.record(e))
		}
		rank++
		return len(out) < limit
	})
	return out
}

func (s *CollectionStore) record(e entry) Record {
	items := make([]int16, s.width)
	copy(items, s.arena.items(e.h))
	return Record{Value: e.value, Seq: e.seq, Items: items}
}

// Len returns the number of retained records.
func (s *CollectionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

// Allocated returns the number of record slots allocated across all blocks.
func (s *CollectionStore) Allocated() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.arena.allocated()
}

// Requests returns the number of Add calls made so far.
func (s *CollectionStore) Requests() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// Full reports whether the store holds maxRetained records.
func (s *CollectionStore) Full() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.full()
}

// MaxValue returns the highest value ever accepted. It never decreases.
func (s *CollectionStore) MaxValue() (float32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxValue, s.hasMax
}

// MinValue returns the lowest value currently retained.
func (s *CollectionStore) MinValue() (float32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.minValue, s.hasMin
}

// MinAllowed returns the floor, max*(1-tolerance), once a maximum exists.
func (s *CollectionStore) MinAllowed() (float32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.floor()
}

// Stats is a snapshot of the store counters.
type Stats struct {
	Requests  int64   `json:"requests"`
	Current   int     `json:"current"`
	Allocated int     `json:"allocated"`
	MinValue  float32 `json:"min_value"`
	MaxValue  float32 `json:"max_value"`
}

func (st Stats) String() string {
	return fmt.Sprintf("Nreqs:%d NCurr:%d Alloc:%d MinVal:%f MaxVal:%f",
		st.Requests, st.Current, st.Allocated, st.MinValue, st.MaxValue)
}

// Stats returns the current counters. Missing extrema are reported as BadValue.
func (s *CollectionStore) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Stats{
		Requests:  s.requests,
		Current:   s.order.Len(),
		Allocated: s.arena.allocated(),
		MinValue:  BadValue,
		MaxValue:  BadValue,
	}
	if s.hasMin {
		st.MinValue = s.minValue
	}
	if s.hasMax {
		st.MaxValue = s.maxValue
	}
	return st
}
