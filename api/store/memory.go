package store

import (
	"context"
	"sync"

	"github.com/huandu/skiplist"
)

// recordKey orders records by (height, seq)
type recordKey struct {
	Height int64
	Seq    uint64
}

type recordKeyAsc struct{}

func (recordKeyAsc) Compare(lhs, rhs interface{}) int {
	l := lhs.(recordKey)
	r := rhs.(recordKey)
	switch {
	case l.Height < r.Height:
		return -1
	case l.Height > r.Height:
		return 1
	case l.Seq < r.Seq:
		return -1
	case l.Seq > r.Seq:
		return 1
	}
	return 0
}

func (recordKeyAsc) CalcScore(key interface{}) float64 {
	return float64(key.(recordKey).Height)
}

// MemoryStore implements Store on a skip list ordered by (height, seq).
// Used for tests and development; nothing is persisted.
type MemoryStore struct {
	mu      sync.RWMutex
	records *skiplist.SkipList
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: skiplist.New(recordKeyAsc{})}
}

func (s *MemoryStore) Insert(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey{Height: rec.Height, Seq: rec.Seq}
	if s.records.Get(key) != nil {
		return nil
	}
	cp := *rec
	s.records.Set(key, &cp)
	return nil
}

func (s *MemoryStore) GetByKey(_ context.Context, queue, key string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Record
	for elem := s.records.Front(); elem != nil; elem = elem.Next() {
		rec := elem.Value.(*Record)
		if rec.Key == key && (queue == "" || rec.Queue == queue) {
			out = append(out, *rec)
		}
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

func (s *MemoryStore) ListByAccount(_ context.Context, account string, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []Record
	for elem := s.records.Front(); elem != nil; elem = elem.Next() {
		rec := elem.Value.(*Record)
		if rec.Account == account {
			matched = append(matched, *rec)
		}
	}

	out := make([]Record, 0, len(matched))
	for i := len(matched) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, matched[i])
	}
	return out, nil
}

func (s *MemoryStore) Latency(_ context.Context, queue string) (*LatencyStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc := newLatencyAccumulator(queue)
	for elem := s.records.Front(); elem != nil; elem = elem.Next() {
		rec := elem.Value.(*Record)
		if rec.Queue == queue {
			acc.add(rec)
		}
	}
	return acc.result(), nil
}

func (s *MemoryStore) LastHeight(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	back := s.records.Back()
	if back == nil {
		return 0, nil
	}
	return back.Key().(recordKey).Height, nil
}

// Len returns the number of stored records
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records.Len()
}
