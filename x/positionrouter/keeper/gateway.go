package keeper

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/perp-router/x/positionrouter/types"
)

// Outcome is the result of one isolated execution attempt inside a batch
type Outcome int

const (
	// OutcomeExecuted means the request was applied and committed
	OutcomeExecuted Outcome = iota
	// OutcomeNotReady means the request is still inside its admission window
	OutcomeNotReady
	// OutcomeFailed means execution failed and nothing was committed
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeExecuted:
		return "executed"
	case OutcomeNotReady:
		return "not_ready"
	default:
		return "failed"
	}
}

// DriveResult summarises one batch drive over a queue
type DriveResult struct {
	Kind         types.QueueKind
	Start        uint64
	End          uint64
	Executed     uint64
	Cancelled    uint64
	Skipped      uint64
	StoppedEarly bool
}

// Processed returns the number of slots consumed by the drive
func (r DriveResult) Processed() uint64 {
	return r.End - r.Start
}

// ExecuteIncreasePositions drives the increase queue from its cursor
func (k *Keeper) ExecuteIncreasePositions(ctx sdk.Context, maxCount uint64, feeReceiver sdk.AccAddress, role types.CallerRole) (DriveResult, error) {
	return k.driveQueue(ctx, types.QueueIncrease, maxCount, feeReceiver, role)
}

// ExecuteDecreasePositions drives the decrease queue from its cursor
func (k *Keeper) ExecuteDecreasePositions(ctx sdk.Context, maxCount uint64, feeReceiver sdk.AccAddress, role types.CallerRole) (DriveResult, error) {
	return k.driveQueue(ctx, types.QueueDecrease, maxCount, feeReceiver, role)
}

// driveQueue walks at most maxCount slots in FIFO order. A request that is
// not yet eligible halts the drive at its slot. A failed execution is
// compensated by a cancel; if the cancel fails too the whole drive returns
// the error and the caller's transaction reverts.
func (k *Keeper) driveQueue(ctx sdk.Context, kind types.QueueKind, maxCount uint64, feeReceiver sdk.AccAddress, role types.CallerRole) (DriveResult, error) {
	state := k.GetQueueState(ctx, kind)
	result := DriveResult{Kind: kind, Start: state.Start}

	end := state.Length
	if maxCount < state.Pending() {
		end = state.Start + maxCount
	}

	index := state.Start
	for ; index < end; index++ {
		key := k.GetQueueSlot(ctx, kind, index)
		if key == nil || !k.hasRequest(ctx, kind, key) {
			// resolved through the single-item path already
			k.ClearQueueSlot(ctx, kind, index)
			result.Skipped++
			continue
		}

		outcome, execErr := k.attemptExecute(ctx, kind, key, feeReceiver, role)
		if outcome == OutcomeNotReady {
			result.StoppedEarly = true
			break
		}

		if outcome == OutcomeFailed {
			k.logger.Info("request execution failed, cancelling",
				"queue", kind.String(),
				"queue_index", index,
				"key", types.FormatRequestKey(key),
				"error", execErr.Error(),
			)
			if err := k.attemptCancel(ctx, kind, key, feeReceiver, role); err != nil {
				return result, errorsmod.Wrapf(err, "cancel %s request at queue index %d after failed execution (%s)", kind, index, execErr)
			}
			result.Cancelled++
		} else {
			result.Executed++
		}

		k.ClearQueueSlot(ctx, kind, index)
	}

	result.End = index
	if err := k.AdvanceCursor(ctx, kind, index); err != nil {
		return result, err
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeDriveQueue,
			sdk.NewAttribute(types.AttributeKeyQueue, kind.String()),
			sdk.NewAttribute(types.AttributeKeyStart, fmt.Sprintf("%d", result.Start)),
			sdk.NewAttribute(types.AttributeKeyEnd, fmt.Sprintf("%d", result.End)),
			sdk.NewAttribute(types.AttributeKeyExecuted, fmt.Sprintf("%d", result.Executed)),
			sdk.NewAttribute(types.AttributeKeyCancelled, fmt.Sprintf("%d", result.Cancelled)),
			sdk.NewAttribute(types.AttributeKeySkipped, fmt.Sprintf("%d", result.Skipped)),
			sdk.NewAttribute(types.AttributeKeyFeeReceiver, feeReceiver.String()),
		),
	)

	return result, nil
}

// attemptExecute runs a single execution in its own cache context and
// commits it only when the request was executed.
func (k *Keeper) attemptExecute(ctx sdk.Context, kind types.QueueKind, key []byte, feeReceiver sdk.AccAddress, role types.CallerRole) (outcome Outcome, err error) {
	cacheCtx, write := ctx.CacheContext()

	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(storetypes.ErrorOutOfGas); ok {
				panic(r)
			}
			outcome = OutcomeFailed
			err = fmt.Errorf("panic executing %s request %s: %v", kind, types.FormatRequestKey(key), r)
		}
	}()

	var executed bool
	if kind == types.QueueIncrease {
		executed, err = k.ExecuteIncreasePosition(cacheCtx, key, feeReceiver, role)
	} else {
		executed, err = k.ExecuteDecreasePosition(cacheCtx, key, feeReceiver, role)
	}
	if err != nil {
		return OutcomeFailed, err
	}
	if !executed {
		return OutcomeNotReady, nil
	}

	write()
	return OutcomeExecuted, nil
}

// attemptCancel runs the compensating cancel in a fresh cache context
func (k *Keeper) attemptCancel(ctx sdk.Context, kind types.QueueKind, key []byte, feeReceiver sdk.AccAddress, role types.CallerRole) (err error) {
	cacheCtx, write := ctx.CacheContext()

	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(storetypes.ErrorOutOfGas); ok {
				panic(r)
			}
			err = fmt.Errorf("panic cancelling %s request %s: %v", kind, types.FormatRequestKey(key), r)
		}
	}()

	caller := k.ModuleAddress()
	if kind == types.QueueIncrease {
		err = k.CancelIncreasePosition(cacheCtx, key, feeReceiver, caller, role)
	} else {
		err = k.CancelDecreasePosition(cacheCtx, key, feeReceiver, caller, role)
	}
	if err != nil {
		return err
	}

	write()
	return nil
}
