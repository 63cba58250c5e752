package keeperbot

import (
	"sync"

	"github.com/google/btree"

	"github.com/openalpha/perp-router/x/positionrouter/types"
)

// Slot is a queue position the bot has seen appended but not yet consumed
type Slot struct {
	Kind           types.QueueKind
	Position       uint64
	ObservedHeight int64
}

func slotLess(a, b Slot) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	return a.Position < b.Position
}

// Tracker keeps the pending slots of both queues ordered by (queue, position).
// The chain only exposes cursor and length, so the height at which a slot was
// first observed stands in for its creation height.
type Tracker struct {
	mu     sync.RWMutex
	slots  *btree.BTreeG[Slot]
	states map[types.QueueKind]types.QueueState
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{
		slots:  btree.NewG(16, slotLess),
		states: make(map[types.QueueKind]types.QueueState),
	}
}

// Observe reconciles the tracker with a queue state read at height: slots
// below the cursor are dropped and newly appended slots are recorded.
func (t *Tracker) Observe(kind types.QueueKind, state types.QueueState, height int64) (added, removed int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var stale []Slot
	t.slots.AscendRange(Slot{Kind: kind}, Slot{Kind: kind, Position: state.Start}, func(s Slot) bool {
		stale = append(stale, s)
		return true
	})
	for _, s := range stale {
		t.slots.Delete(s)
	}

	from := state.Start
	if prev, ok := t.states[kind]; ok && prev.Length > from {
		from = prev.Length
	}
	for pos := from; pos < state.Length; pos++ {
		if _, ok := t.slots.ReplaceOrInsert(Slot{Kind: kind, Position: pos, ObservedHeight: height}); !ok {
			added++
		}
	}

	t.states[kind] = state
	return added, len(stale)
}

// Head returns the oldest pending slot of a queue
func (t *Tracker) Head(kind types.QueueKind) (Slot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var head Slot
	found := false
	t.slots.AscendGreaterOrEqual(Slot{Kind: kind}, func(s Slot) bool {
		if s.Kind == kind {
			head, found = s, true
		}
		return false
	})
	return head, found
}

// Ready returns how many leading slots of a queue were observed at least
// minDelay blocks before height, capped at limit
func (t *Tracker) Ready(kind types.QueueKind, height, minDelay int64, limit uint64) uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var n uint64
	t.slots.AscendGreaterOrEqual(Slot{Kind: kind}, func(s Slot) bool {
		if s.Kind != kind || n >= limit || s.ObservedHeight+minDelay > height {
			return false
		}
		n++
		return true
	})
	return n
}

// Pending returns the number of tracked slots of a queue
func (t *Tracker) Pending(kind types.QueueKind) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := 0
	t.slots.AscendGreaterOrEqual(Slot{Kind: kind}, func(s Slot) bool {
		if s.Kind != kind {
			return false
		}
		n++
		return true
	})
	return n
}

// Len returns the total number of tracked slots
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.slots.Len()
}
