package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/perp-router/x/positionrouter/types"
)

// InitGenesis initializes the router state from genesis
func (k *Keeper) InitGenesis(ctx sdk.Context, gs types.GenesisState) error {
	if err := k.SetParams(ctx, gs.Params); err != nil {
		return err
	}

	for _, keeper := range gs.PositionKeepers {
		addr, err := sdk.AccAddressFromBech32(keeper)
		if err != nil {
			return err
		}
		if err := k.PositionKeepers.Set(ctx, addr); err != nil {
			return err
		}
	}

	k.setQueueState(ctx, types.QueueIncrease, gs.IncreaseQueue)
	k.setQueueState(ctx, types.QueueDecrease, gs.DecreaseQueue)
	if err := k.importEntries(ctx, types.QueueIncrease, gs.IncreaseEntries); err != nil {
		return err
	}
	if err := k.importEntries(ctx, types.QueueDecrease, gs.DecreaseEntries); err != nil {
		return err
	}

	for _, idx := range gs.AccountIndexes {
		addr, err := sdk.AccAddressFromBech32(idx.Account)
		if err != nil {
			return err
		}
		k.setRequestIndex(ctx, types.QueueIncrease, addr, idx.IncreaseIndex)
		k.setRequestIndex(ctx, types.QueueDecrease, addr, idx.DecreaseIndex)
	}

	for i := range gs.IncreaseRequests {
		req := gs.IncreaseRequests[i]
		addr, err := sdk.AccAddressFromBech32(req.Account)
		if err != nil {
			return err
		}
		k.SetIncreaseRequest(ctx, types.RequestKey(addr, req.Index), &req)
	}
	for i := range gs.DecreaseRequests {
		req := gs.DecreaseRequests[i]
		addr, err := sdk.AccAddressFromBech32(req.Account)
		if err != nil {
			return err
		}
		k.SetDecreaseRequest(ctx, types.RequestKey(addr, req.Index), &req)
	}

	for _, coin := range gs.FeeReserves {
		if err := k.FeeReserves.Set(ctx, coin.Denom, coin.Amount); err != nil {
			return err
		}
	}

	return nil
}

func (k *Keeper) importEntries(ctx sdk.Context, kind types.QueueKind, entries []types.QueueEntry) error {
	for _, e := range entries {
		key, err := types.ParseRequestKey(e.Key)
		if err != nil {
			return types.ErrInvalidGenesis.Wrap(err.Error())
		}
		k.GetStore(ctx).Set(types.QueueSlotStoreKey(kind, e.Position), key)
	}
	return nil
}

// ExportGenesis exports the router state
func (k *Keeper) ExportGenesis(ctx sdk.Context) (*types.GenesisState, error) {
	keepers, err := k.GetPositionKeepers(ctx)
	if err != nil {
		return nil, err
	}
	reserves, err := k.GetFeeReserves(ctx)
	if err != nil {
		return nil, err
	}

	return &types.GenesisState{
		Params:           k.GetParams(ctx),
		PositionKeepers:  keepers,
		IncreaseQueue:    k.GetQueueState(ctx, types.QueueIncrease),
		DecreaseQueue:    k.GetQueueState(ctx, types.QueueDecrease),
		IncreaseEntries:  k.pendingEntries(ctx, types.QueueIncrease),
		DecreaseEntries:  k.pendingEntries(ctx, types.QueueDecrease),
		AccountIndexes:   k.GetAllAccountIndexes(ctx),
		IncreaseRequests: k.GetAllIncreaseRequests(ctx),
		DecreaseRequests: k.GetAllDecreaseRequests(ctx),
		FeeReserves:      reserves,
	}, nil
}
