package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/perp-router/x/perpetual/types"
)

// IncreasePosition adds collateralDelta, already transferred to the module,
// and sizeDelta at the current index price to the account's position.
func (k *Keeper) IncreasePosition(
	ctx sdk.Context,
	account, collateralDenom, marketID string,
	collateralDelta math.Int,
	sizeDelta math.LegacyDec,
	isLong bool,
	acceptablePrice math.LegacyDec,
) error {
	market := k.GetMarket(ctx, marketID)
	if market == nil {
		return types.ErrMarketNotFound.Wrap(marketID)
	}
	if !market.Status.CanIncrease() {
		return types.ErrMarketNotActive.Wrapf("%s is %s", marketID, market.Status)
	}
	if collateralDelta.IsNegative() || sizeDelta.IsNegative() {
		return types.ErrInvalidQuantity.Wrap("negative delta")
	}
	if collateralDelta.IsZero() && sizeDelta.IsZero() {
		return types.ErrInvalidQuantity.Wrap("empty increase")
	}

	markPrice, err := k.mustPrice(ctx, market.IndexDenom)
	if err != nil {
		return err
	}
	if sizeDelta.IsPositive() && !types.IsPriceAcceptable(isLong, true, markPrice, acceptablePrice) {
		return types.ErrPriceExceedsAcceptable.Wrapf("mark %s, acceptable %s", markPrice, acceptablePrice)
	}
	collateralPrice, err := k.mustPrice(ctx, collateralDenom)
	if err != nil {
		return err
	}

	position := k.GetPosition(ctx, account, marketID, collateralDenom, isLong)
	if position == nil {
		position = types.NewPosition(account, marketID, collateralDenom, isLong)
	}
	position.Collateral = position.Collateral.Add(collateralDelta)
	position.AddSize(sizeDelta, markPrice)
	position.LastIncreasedAt = ctx.BlockTime().Unix()

	if err := checkPosition(market, position, collateralPrice); err != nil {
		return err
	}
	k.SetPosition(ctx, position)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"position_increased",
			sdk.NewAttribute("trader", account),
			sdk.NewAttribute("market_id", marketID),
			sdk.NewAttribute("side", position.Side().String()),
			sdk.NewAttribute("collateral_delta", collateralDelta.String()),
			sdk.NewAttribute("size_delta", sizeDelta.String()),
			sdk.NewAttribute("price", markPrice.String()),
			sdk.NewAttribute("size", position.Size.String()),
		),
	)

	k.Logger().Debug("position increased",
		"trader", account,
		"market_id", marketID,
		"side", position.Side().String(),
		"size", position.Size.String(),
		"entry_price", position.EntryPrice.String(),
	)
	return nil
}

// DecreasePosition removes sizeDelta and collateralDelta from the account's
// position, realises PnL on the reduced fraction and sends the payout to
// receiverModule. Closing the full size releases all remaining collateral.
func (k *Keeper) DecreasePosition(
	ctx sdk.Context,
	account, collateralDenom, marketID string,
	collateralDelta math.Int,
	sizeDelta math.LegacyDec,
	isLong bool,
	acceptablePrice math.LegacyDec,
	receiverModule string,
) (math.Int, error) {
	market := k.GetMarket(ctx, marketID)
	if market == nil {
		return math.Int{}, types.ErrMarketNotFound.Wrap(marketID)
	}
	if !market.Status.CanDecrease() {
		return math.Int{}, types.ErrMarketNotActive.Wrapf("%s is %s", marketID, market.Status)
	}
	position := k.GetPosition(ctx, account, marketID, collateralDenom, isLong)
	if position == nil {
		return math.Int{}, types.ErrPositionNotFound.Wrapf("%s %s %s", account, marketID, collateralDenom)
	}
	if collateralDelta.IsNegative() || sizeDelta.IsNegative() {
		return math.Int{}, types.ErrInvalidQuantity.Wrap("negative delta")
	}
	if sizeDelta.GT(position.Size) {
		return math.Int{}, types.ErrCannotReducePosition.Wrapf("size %s, delta %s", position.Size, sizeDelta)
	}
	if collateralDelta.GT(position.Collateral) {
		return math.Int{}, types.ErrInsufficientMargin.Wrapf("collateral %s, delta %s", position.Collateral, collateralDelta)
	}

	markPrice, err := k.mustPrice(ctx, market.IndexDenom)
	if err != nil {
		return math.Int{}, err
	}
	if !types.IsPriceAcceptable(isLong, false, markPrice, acceptablePrice) {
		return math.Int{}, types.ErrPriceExceedsAcceptable.Wrapf("mark %s, acceptable %s", markPrice, acceptablePrice)
	}
	collateralPrice, err := k.mustPrice(ctx, collateralDenom)
	if err != nil {
		return math.Int{}, err
	}

	realizedPnL := math.LegacyZeroDec()
	if sizeDelta.IsPositive() {
		realizedPnL = position.CalculatePnL(markPrice).Mul(sizeDelta).Quo(position.Size)
	}

	pool := k.GetPool(ctx, collateralDenom)
	payout := collateralDelta
	position.Collateral = position.Collateral.Sub(collateralDelta)

	switch {
	case realizedPnL.IsPositive():
		profit := realizedPnL.Quo(collateralPrice).TruncateInt()
		if pool.Reserve.LT(profit) {
			return math.Int{}, types.ErrInsufficientLiquidity.Wrapf("%s reserve %s < profit %s", collateralDenom, pool.Reserve, profit)
		}
		pool.Reserve = pool.Reserve.Sub(profit)
		payout = payout.Add(profit)
	case realizedPnL.IsNegative():
		loss := realizedPnL.Neg().Quo(collateralPrice).Ceil().TruncateInt()
		fromCollateral := math.MinInt(loss, position.Collateral)
		fromPayout := loss.Sub(fromCollateral)
		if fromPayout.GT(payout) {
			return math.Int{}, types.ErrInsufficientMargin.Wrapf("loss %s exceeds collateral", loss)
		}
		position.Collateral = position.Collateral.Sub(fromCollateral)
		payout = payout.Sub(fromPayout)
		pool.Reserve = pool.Reserve.Add(loss)
	}

	position.Size = position.Size.Sub(sizeDelta)
	if position.Size.IsZero() {
		payout = payout.Add(position.Collateral)
		position.Collateral = math.ZeroInt()
		k.DeletePosition(ctx, position)
	} else {
		if err := checkPosition(market, position, collateralPrice); err != nil {
			return math.Int{}, err
		}
		k.SetPosition(ctx, position)
	}
	k.SetPool(ctx, pool)

	if payout.IsPositive() {
		if err := k.bankKeeper.SendCoinsFromModuleToModule(ctx, types.ModuleName, receiverModule, sdk.NewCoins(sdk.NewCoin(collateralDenom, payout))); err != nil {
			return math.Int{}, err
		}
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"position_decreased",
			sdk.NewAttribute("trader", account),
			sdk.NewAttribute("market_id", marketID),
			sdk.NewAttribute("side", position.Side().String()),
			sdk.NewAttribute("collateral_delta", collateralDelta.String()),
			sdk.NewAttribute("size_delta", sizeDelta.String()),
			sdk.NewAttribute("price", markPrice.String()),
			sdk.NewAttribute("realized_pnl", realizedPnL.String()),
			sdk.NewAttribute("payout", payout.String()),
		),
	)

	k.Logger().Debug("position decreased",
		"trader", account,
		"market_id", marketID,
		"realized_pnl", realizedPnL.String(),
		"payout", payout.String(),
	)
	return payout, nil
}

// checkPosition enforces the market's leverage and size bounds on an open position
func checkPosition(market *types.Market, position *types.Position, collateralPrice math.LegacyDec) error {
	if position.Size.IsZero() {
		return nil
	}
	if !position.Collateral.IsPositive() {
		return types.ErrInsufficientMargin.Wrap("open position without collateral")
	}
	if leverage := position.CalculateLeverage(collateralPrice); leverage.GT(market.MaxLeverage) {
		return types.ErrInvalidLeverage.Wrapf("leverage %s exceeds %s", leverage, market.MaxLeverage)
	}
	if market.MaxPositionSize.IsPositive() && position.Size.GT(market.MaxPositionSize) {
		return types.ErrPositionSizeTooLarge.Wrapf("size %s exceeds %s", position.Size, market.MaxPositionSize)
	}
	return nil
}
