package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/perp-router/x/perpetual/types"
)

// UpsertMarket creates a market or replaces an existing market's config
func (k *Keeper) UpsertMarket(ctx sdk.Context, market *types.Market) error {
	if err := market.Validate(); err != nil {
		return err
	}

	existing := k.GetMarket(ctx, market.MarketID)
	k.SetMarket(ctx, market)

	eventType := "market_created"
	if existing != nil {
		eventType = "market_updated"
	}
	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			eventType,
			sdk.NewAttribute("market_id", market.MarketID),
			sdk.NewAttribute("index_denom", market.IndexDenom),
			sdk.NewAttribute("max_leverage", market.MaxLeverage.String()),
			sdk.NewAttribute("status", market.Status.String()),
		),
	)

	k.Logger().Info(eventType,
		"market_id", market.MarketID,
		"index_denom", market.IndexDenom,
		"status", market.Status.String(),
	)
	return nil
}

// PostPrice records the oracle price of denom
func (k *Keeper) PostPrice(ctx sdk.Context, denom string, price math.LegacyDec) error {
	if err := sdk.ValidateDenom(denom); err != nil {
		return types.ErrInvalidDenom.Wrap(err.Error())
	}
	if price.IsNil() || !price.IsPositive() {
		return types.ErrInvalidPrice.Wrapf("%s: %s", denom, price)
	}

	k.SetPrice(ctx, &types.PriceInfo{
		Denom:     denom,
		Price:     price,
		UpdatedAt: ctx.BlockTime().Unix(),
	})

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"price_updated",
			sdk.NewAttribute("denom", denom),
			sdk.NewAttribute("price", price.String()),
		),
	)
	return nil
}

// FundPool moves liquidity from an account into the module and credits the
// denom's pool
func (k *Keeper) FundPool(ctx sdk.Context, from sdk.AccAddress, amount sdk.Coin) (math.Int, error) {
	if !amount.IsValid() || !amount.IsPositive() {
		return math.Int{}, types.ErrInvalidQuantity.Wrapf("fund amount %s", amount)
	}
	if err := k.bankKeeper.SendCoinsFromAccountToModule(ctx, from, types.ModuleName, sdk.NewCoins(amount)); err != nil {
		return math.Int{}, err
	}

	pool := k.GetPool(ctx, amount.Denom)
	pool.Reserve = pool.Reserve.Add(amount.Amount)
	k.SetPool(ctx, pool)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"pool_funded",
			sdk.NewAttribute("funder", from.String()),
			sdk.NewAttribute("amount", amount.String()),
			sdk.NewAttribute("reserve", pool.Reserve.String()),
		),
	)
	return pool.Reserve, nil
}
