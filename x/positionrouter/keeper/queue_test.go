package keeper

import (
	"bytes"
	"errors"
	"testing"

	"github.com/openalpha/perp-router/x/positionrouter/types"
)

// TestQueueAppendAndSlice tests append order and slice clipping
func TestQueueAppendAndSlice(t *testing.T) {
	f := setupKeeper(t)

	var keys [][]byte
	for i := uint64(1); i <= 4; i++ {
		key := types.RequestKey(alice, i)
		pos := f.keeper.AppendToQueue(f.ctx, types.QueueIncrease, key)
		if pos != i-1 {
			t.Errorf("expected position %d, got %d", i-1, pos)
		}
		keys = append(keys, key)
	}

	state := f.keeper.GetQueueState(f.ctx, types.QueueIncrease)
	if state.Start != 0 || state.Length != 4 {
		t.Fatalf("expected state (0, 4), got (%d, %d)", state.Start, state.Length)
	}

	slice := f.keeper.GetQueueSlice(f.ctx, types.QueueIncrease, 1, 10)
	if len(slice) != 3 {
		t.Fatalf("expected slice clipped to 3, got %d", len(slice))
	}
	for i, key := range slice {
		if !bytes.Equal(key, keys[i+1]) {
			t.Errorf("slice[%d] out of order", i)
		}
	}

	if got := f.keeper.GetQueueSlice(f.ctx, types.QueueIncrease, 4, 1); got != nil {
		t.Errorf("expected empty slice past the tail, got %d keys", len(got))
	}

	// queues are independent
	if f.keeper.GetQueueState(f.ctx, types.QueueDecrease).Length != 0 {
		t.Error("decrease queue must be untouched")
	}
}

// TestQueueClearSlot tests tombstoned slots read back as nil
func TestQueueClearSlot(t *testing.T) {
	f := setupKeeper(t)
	f.keeper.AppendToQueue(f.ctx, types.QueueDecrease, types.RequestKey(alice, 1))
	f.keeper.AppendToQueue(f.ctx, types.QueueDecrease, types.RequestKey(alice, 2))

	f.keeper.ClearQueueSlot(f.ctx, types.QueueDecrease, 0)

	slice := f.keeper.GetQueueSlice(f.ctx, types.QueueDecrease, 0, 2)
	if slice[0] != nil {
		t.Error("expected cleared slot to be nil")
	}
	if slice[1] == nil {
		t.Error("expected second slot to be intact")
	}
	if f.keeper.GetQueueState(f.ctx, types.QueueDecrease).Length != 2 {
		t.Error("clearing must not compact the queue")
	}
}

// TestAdvanceCursor tests the cursor is monotonic and bounded by length
func TestAdvanceCursor(t *testing.T) {
	f := setupKeeper(t)
	for i := uint64(1); i <= 3; i++ {
		f.keeper.AppendToQueue(f.ctx, types.QueueIncrease, types.RequestKey(alice, i))
	}

	tests := []struct {
		name      string
		target    uint64
		wantErr   bool
		wantStart uint64
	}{
		{"forward", 2, false, 2},
		{"same position", 2, false, 2},
		{"regression", 1, true, 2},
		{"beyond length", 4, true, 2},
		{"to length", 3, false, 3},
	}

	for _, tc := range tests {
		err := f.keeper.AdvanceCursor(f.ctx, types.QueueIncrease, tc.target)
		if tc.wantErr && !errors.Is(err, types.ErrInvariantViolation) {
			t.Errorf("%s: expected ErrInvariantViolation, got %v", tc.name, err)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
		state := f.keeper.GetQueueState(f.ctx, types.QueueIncrease)
		if state.Start != tc.wantStart {
			t.Errorf("%s: expected start %d, got %d", tc.name, tc.wantStart, state.Start)
		}
		if state.Start > state.Length {
			t.Errorf("%s: cursor %d beyond length %d", tc.name, state.Start, state.Length)
		}
	}
}

// TestQueueLengths tests the combined cursor/length view
func TestQueueLengths(t *testing.T) {
	f := setupKeeper(t)
	f.keeper.AppendToQueue(f.ctx, types.QueueIncrease, types.RequestKey(alice, 1))
	f.keeper.AppendToQueue(f.ctx, types.QueueIncrease, types.RequestKey(alice, 2))
	f.keeper.AppendToQueue(f.ctx, types.QueueDecrease, types.RequestKey(bob, 1))
	if err := f.keeper.AdvanceCursor(f.ctx, types.QueueIncrease, 1); err != nil {
		t.Fatalf("advance: %v", err)
	}

	got := f.keeper.GetQueueLengths(f.ctx)
	want := types.QueueLengths{IncreaseStart: 1, IncreaseLength: 2, DecreaseStart: 0, DecreaseLength: 1}
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}
