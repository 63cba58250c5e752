package keeper

import (
	"encoding/json"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/perp-router/x/positionrouter/types"
)

// GetQueueState returns a queue's cursor and length
func (k *Keeper) GetQueueState(ctx sdk.Context, kind types.QueueKind) types.QueueState {
	bz := k.GetStore(ctx).Get(types.QueueStateStoreKey(kind))
	if bz == nil {
		return types.QueueState{}
	}
	var state types.QueueState
	if err := json.Unmarshal(bz, &state); err != nil {
		return types.QueueState{}
	}
	return state
}

func (k *Keeper) setQueueState(ctx sdk.Context, kind types.QueueKind, state types.QueueState) {
	bz, _ := json.Marshal(state)
	k.GetStore(ctx).Set(types.QueueStateStoreKey(kind), bz)
}

// AppendToQueue writes key into the tail slot and returns its position
func (k *Keeper) AppendToQueue(ctx sdk.Context, kind types.QueueKind, key []byte) uint64 {
	state := k.GetQueueState(ctx, kind)
	position := state.Length
	k.GetStore(ctx).Set(types.QueueSlotStoreKey(kind, position), key)
	state.Length++
	k.setQueueState(ctx, kind, state)
	return position
}

// AdvanceCursor moves the queue cursor forward to newStart
func (k *Keeper) AdvanceCursor(ctx sdk.Context, kind types.QueueKind, newStart uint64) error {
	state := k.GetQueueState(ctx, kind)
	if newStart < state.Start {
		return types.ErrInvariantViolation.Wrapf("%s queue cursor regression %d -> %d", kind, state.Start, newStart)
	}
	if newStart > state.Length {
		return types.ErrInvariantViolation.Wrapf("%s queue cursor %d beyond length %d", kind, newStart, state.Length)
	}
	if newStart == state.Start {
		return nil
	}
	state.Start = newStart
	k.setQueueState(ctx, kind, state)
	return nil
}

// GetQueueSlot returns the key stored at position, or nil once cleared
func (k *Keeper) GetQueueSlot(ctx sdk.Context, kind types.QueueKind, position uint64) []byte {
	return k.GetStore(ctx).Get(types.QueueSlotStoreKey(kind, position))
}

// GetQueueSlice returns up to count keys starting at start, clipped to the
// queue length. Cleared slots appear as nil entries.
func (k *Keeper) GetQueueSlice(ctx sdk.Context, kind types.QueueKind, start, count uint64) [][]byte {
	state := k.GetQueueState(ctx, kind)
	if start >= state.Length {
		return nil
	}
	end := state.Length
	if count < end-start {
		end = start + count
	}

	keys := make([][]byte, 0, end-start)
	for i := start; i < end; i++ {
		keys = append(keys, k.GetQueueSlot(ctx, kind, i))
	}
	return keys
}

// ClearQueueSlot tombstones a consumed slot
func (k *Keeper) ClearQueueSlot(ctx sdk.Context, kind types.QueueKind, position uint64) {
	k.GetStore(ctx).Delete(types.QueueSlotStoreKey(kind, position))
}

// GetQueueLengths returns both queues' cursors and lengths
func (k *Keeper) GetQueueLengths(ctx sdk.Context) types.QueueLengths {
	inc := k.GetQueueState(ctx, types.QueueIncrease)
	dec := k.GetQueueState(ctx, types.QueueDecrease)
	return types.QueueLengths{
		IncreaseStart:  inc.Start,
		IncreaseLength: inc.Length,
		DecreaseStart:  dec.Start,
		DecreaseLength: dec.Length,
	}
}

// pendingEntries lists the occupied slots in [Start, Length) for genesis export
func (k *Keeper) pendingEntries(ctx sdk.Context, kind types.QueueKind) []types.QueueEntry {
	state := k.GetQueueState(ctx, kind)
	var entries []types.QueueEntry
	for i := state.Start; i < state.Length; i++ {
		key := k.GetQueueSlot(ctx, kind, i)
		if key == nil {
			continue
		}
		entries = append(entries, types.QueueEntry{Position: i, Key: types.FormatRequestKey(key)})
	}
	return entries
}
