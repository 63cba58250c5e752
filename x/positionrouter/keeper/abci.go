package keeper

import (
	"time"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"

	"github.com/openalpha/perp-router/x/positionrouter/types"
)

// EndBlocker drives both queues as the router itself when
// EndBlockBatchSize is set. Failed drives are discarded and logged; they
// never halt the chain.
func (k *Keeper) EndBlocker(ctx sdk.Context) ([]DriveResult, error) {
	params := k.GetParams(ctx)
	if params.EndBlockBatchSize == 0 {
		return nil, nil
	}

	start := time.Now()
	feeReceiver := authtypes.NewModuleAddress(authtypes.FeeCollectorName)

	var results []DriveResult
	for _, kind := range []types.QueueKind{types.QueueIncrease, types.QueueDecrease} {
		if k.GetQueueState(ctx, kind).Pending() == 0 {
			continue
		}

		cacheCtx, write := ctx.CacheContext()
		result, err := k.driveQueue(cacheCtx, kind, params.EndBlockBatchSize, feeReceiver, types.CallerSelf)
		if err != nil {
			k.logger.Error("end block drive aborted",
				"queue", kind.String(),
				"block", ctx.BlockHeight(),
				"error", err.Error(),
			)
			continue
		}
		write()
		results = append(results, result)
	}

	var executed, cancelled uint64
	for _, r := range results {
		executed += r.Executed
		cancelled += r.Cancelled
	}

	k.logger.Debug("PositionRouter EndBlocker completed",
		"block", ctx.BlockHeight(),
		"total_ms", time.Since(start).Milliseconds(),
		"executed", executed,
		"cancelled", cancelled,
	)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeEndBlock,
			sdk.NewAttribute(types.AttributeKeyBlockHeight, math.NewInt(ctx.BlockHeight()).String()),
			sdk.NewAttribute(types.AttributeKeyExecuted, math.NewIntFromUint64(executed).String()),
			sdk.NewAttribute(types.AttributeKeyCancelled, math.NewIntFromUint64(cancelled).String()),
		),
	)

	return results, nil
}
