package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/perp-router/x/perpetual/types"
)

// Swap converts amountIn of tokenIn, already held by the module, into tokenOut
// at oracle prices and sends the output to receiverModule.
func (k *Keeper) Swap(ctx sdk.Context, tokenIn, tokenOut string, amountIn, minOut math.Int, receiverModule string) (math.Int, error) {
	if tokenIn == tokenOut {
		return math.Int{}, types.ErrSameDenom.Wrap(tokenIn)
	}
	if amountIn.IsNil() || !amountIn.IsPositive() {
		return math.Int{}, types.ErrInvalidQuantity.Wrap("swap amount must be positive")
	}

	priceIn, err := k.mustPrice(ctx, tokenIn)
	if err != nil {
		return math.Int{}, err
	}
	priceOut, err := k.mustPrice(ctx, tokenOut)
	if err != nil {
		return math.Int{}, err
	}

	amountOut := math.LegacyNewDecFromInt(amountIn).Mul(priceIn).Quo(priceOut).TruncateInt()
	if !minOut.IsNil() && amountOut.LT(minOut) {
		return math.Int{}, types.ErrSlippage.Wrapf("out %s < min %s", amountOut, minOut)
	}

	poolOut := k.GetPool(ctx, tokenOut)
	if poolOut.Reserve.LT(amountOut) {
		return math.Int{}, types.ErrInsufficientLiquidity.Wrapf("%s reserve %s < %s", tokenOut, poolOut.Reserve, amountOut)
	}
	poolIn := k.GetPool(ctx, tokenIn)
	poolIn.Reserve = poolIn.Reserve.Add(amountIn)
	poolOut.Reserve = poolOut.Reserve.Sub(amountOut)
	k.SetPool(ctx, poolIn)
	k.SetPool(ctx, poolOut)

	if amountOut.IsPositive() {
		if err := k.bankKeeper.SendCoinsFromModuleToModule(ctx, types.ModuleName, receiverModule, sdk.NewCoins(sdk.NewCoin(tokenOut, amountOut))); err != nil {
			return math.Int{}, err
		}
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"swap",
			sdk.NewAttribute("token_in", tokenIn),
			sdk.NewAttribute("token_out", tokenOut),
			sdk.NewAttribute("amount_in", amountIn.String()),
			sdk.NewAttribute("amount_out", amountOut.String()),
			sdk.NewAttribute("receiver", receiverModule),
		),
	)
	return amountOut, nil
}
