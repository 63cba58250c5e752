package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/perp-router/x/perpetual/types"
)

// InitGenesis imports markets, prices, pools and positions
func (k *Keeper) InitGenesis(ctx sdk.Context, gs types.GenesisState) error {
	if err := gs.Validate(); err != nil {
		return err
	}
	for i := range gs.Markets {
		k.SetMarket(ctx, &gs.Markets[i])
	}
	for i := range gs.Prices {
		price := gs.Prices[i]
		if price.UpdatedAt == 0 {
			price.UpdatedAt = ctx.BlockTime().Unix()
		}
		k.SetPrice(ctx, &price)
	}
	for i := range gs.Pools {
		k.SetPool(ctx, &gs.Pools[i])
	}
	for i := range gs.Positions {
		k.SetPosition(ctx, &gs.Positions[i])
	}
	return nil
}

// ExportGenesis exports the module state
func (k *Keeper) ExportGenesis(ctx sdk.Context) *types.GenesisState {
	gs := &types.GenesisState{
		Markets:   []types.Market{},
		Prices:    []types.PriceInfo{},
		Pools:     []types.Pool{},
		Positions: []types.Position{},
	}
	for _, m := range k.GetAllMarkets(ctx) {
		gs.Markets = append(gs.Markets, *m)
	}
	for _, p := range k.GetAllPrices(ctx) {
		gs.Prices = append(gs.Prices, *p)
	}
	for _, p := range k.GetAllPools(ctx) {
		gs.Pools = append(gs.Pools, *p)
	}
	for _, p := range k.GetAllPositions(ctx) {
		gs.Positions = append(gs.Positions, *p)
	}
	return gs
}
