package keeper

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"

	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/perp-router/x/positionrouter/types"
)

// ============ Per-account counters ============

// GetRequestIndex returns the last index assigned to account for kind
func (k *Keeper) GetRequestIndex(ctx sdk.Context, kind types.QueueKind, account sdk.AccAddress) uint64 {
	bz := k.GetStore(ctx).Get(types.RequestIndexStoreKey(kind, account))
	if len(bz) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(bz)
}

func (k *Keeper) setRequestIndex(ctx sdk.Context, kind types.QueueKind, account sdk.AccAddress, index uint64) {
	k.GetStore(ctx).Set(types.RequestIndexStoreKey(kind, account), binary.BigEndian.AppendUint64(nil, index))
}

// nextRequestIndex bumps and returns the account's counter
func (k *Keeper) nextRequestIndex(ctx sdk.Context, kind types.QueueKind, account sdk.AccAddress) uint64 {
	index := k.GetRequestIndex(ctx, kind, account) + 1
	k.setRequestIndex(ctx, kind, account, index)
	return index
}

// GetAllAccountIndexes returns every account counter, merged per account
func (k *Keeper) GetAllAccountIndexes(ctx sdk.Context) []types.AccountIndex {
	merged := make(map[string]*types.AccountIndex)
	var order []string

	for _, kind := range []types.QueueKind{types.QueueIncrease, types.QueueDecrease} {
		prefix := types.RequestIndexStoreKey(kind, nil)
		iterator := storetypes.KVStorePrefixIterator(k.GetStore(ctx), prefix)
		for ; iterator.Valid(); iterator.Next() {
			account := sdk.AccAddress(iterator.Key()[len(prefix):]).String()
			idx, ok := merged[account]
			if !ok {
				idx = &types.AccountIndex{Account: account}
				merged[account] = idx
				order = append(order, account)
			}
			value := binary.BigEndian.Uint64(iterator.Value())
			if kind == types.QueueIncrease {
				idx.IncreaseIndex = value
			} else {
				idx.DecreaseIndex = value
			}
		}
		iterator.Close()
	}

	out := make([]types.AccountIndex, 0, len(order))
	for _, account := range order {
		out = append(out, *merged[account])
	}
	return out
}

// ============ Increase requests ============

// CreateIncreaseRequest assigns the next per-account index to req, stores it
// and appends its key to the increase queue.
func (k *Keeper) CreateIncreaseRequest(ctx sdk.Context, req *types.IncreasePositionRequest) (uint64, []byte, error) {
	if len(req.Path) != 1 && len(req.Path) != 2 {
		return 0, nil, types.ErrInvalidPath.Wrapf("path length %d", len(req.Path))
	}
	account, err := sdk.AccAddressFromBech32(req.Account)
	if err != nil {
		return 0, nil, types.ErrInvalidAddress.Wrapf("account: %s", err)
	}

	req.Index = k.nextRequestIndex(ctx, types.QueueIncrease, account)
	req.BlockHeight = ctx.BlockHeight()
	req.BlockTime = ctx.BlockTime().Unix()

	key := types.RequestKey(account, req.Index)
	k.SetIncreaseRequest(ctx, key, req)
	queueIndex := k.AppendToQueue(ctx, types.QueueIncrease, key)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeCreateIncreasePosition,
			sdk.NewAttribute(types.AttributeKeyKey, types.FormatRequestKey(key)),
			sdk.NewAttribute(types.AttributeKeyAccount, req.Account),
			sdk.NewAttribute(types.AttributeKeyPath, strings.Join(req.Path, ",")),
			sdk.NewAttribute(types.AttributeKeyMarketID, req.MarketID),
			sdk.NewAttribute(types.AttributeKeyAmountIn, req.AmountIn.String()),
			sdk.NewAttribute(types.AttributeKeyMinOut, req.MinOut.String()),
			sdk.NewAttribute(types.AttributeKeySizeDelta, req.SizeDelta.String()),
			sdk.NewAttribute(types.AttributeKeyIsLong, fmt.Sprintf("%t", req.IsLong)),
			sdk.NewAttribute(types.AttributeKeyAcceptablePrice, req.AcceptablePrice.String()),
			sdk.NewAttribute(types.AttributeKeyExecutionFee, req.ExecutionFee.String()),
			sdk.NewAttribute(types.AttributeKeyIndex, fmt.Sprintf("%d", req.Index)),
			sdk.NewAttribute(types.AttributeKeyQueueIndex, fmt.Sprintf("%d", queueIndex)),
			sdk.NewAttribute(types.AttributeKeyBlockHeight, fmt.Sprintf("%d", req.BlockHeight)),
			sdk.NewAttribute(types.AttributeKeyBlockTime, fmt.Sprintf("%d", req.BlockTime)),
			sdk.NewAttribute(types.AttributeKeyHasCollateralInNative, fmt.Sprintf("%t", req.HasCollateralInNative)),
		),
	)

	k.logger.Info("increase request created",
		"key", types.FormatRequestKey(key),
		"account", req.Account,
		"index", req.Index,
		"queue_index", queueIndex,
	)

	return req.Index, key, nil
}

// SetIncreaseRequest saves an increase request under key
func (k *Keeper) SetIncreaseRequest(ctx sdk.Context, key []byte, req *types.IncreasePositionRequest) {
	bz, _ := json.Marshal(req)
	k.GetStore(ctx).Set(types.RequestStoreKey(types.QueueIncrease, key), bz)
}

// GetIncreaseRequest retrieves an increase request
func (k *Keeper) GetIncreaseRequest(ctx sdk.Context, key []byte) (*types.IncreasePositionRequest, bool) {
	bz := k.GetStore(ctx).Get(types.RequestStoreKey(types.QueueIncrease, key))
	if bz == nil {
		return nil, false
	}
	var req types.IncreasePositionRequest
	if err := json.Unmarshal(bz, &req); err != nil {
		return nil, false
	}
	return &req, true
}

// RemoveIncreaseRequest deletes an increase request; absent keys are a no-op
func (k *Keeper) RemoveIncreaseRequest(ctx sdk.Context, key []byte) {
	k.GetStore(ctx).Delete(types.RequestStoreKey(types.QueueIncrease, key))
}

// GetAllIncreaseRequests returns every pending increase request
func (k *Keeper) GetAllIncreaseRequests(ctx sdk.Context) []types.IncreasePositionRequest {
	iterator := storetypes.KVStorePrefixIterator(k.GetStore(ctx), types.IncreaseRequestKeyPrefix)
	defer iterator.Close()

	var requests []types.IncreasePositionRequest
	for ; iterator.Valid(); iterator.Next() {
		var req types.IncreasePositionRequest
		if err := json.Unmarshal(iterator.Value(), &req); err != nil {
			continue
		}
		requests = append(requests, req)
	}
	return requests
}

// ============ Decrease requests ============

// CreateDecreaseRequest assigns the next per-account index to req, stores it
// and appends its key to the decrease queue.
func (k *Keeper) CreateDecreaseRequest(ctx sdk.Context, req *types.DecreasePositionRequest) (uint64, []byte, error) {
	account, err := sdk.AccAddressFromBech32(req.Account)
	if err != nil {
		return 0, nil, types.ErrInvalidAddress.Wrapf("account: %s", err)
	}

	req.Index = k.nextRequestIndex(ctx, types.QueueDecrease, account)
	req.BlockHeight = ctx.BlockHeight()
	req.BlockTime = ctx.BlockTime().Unix()

	key := types.RequestKey(account, req.Index)
	k.SetDecreaseRequest(ctx, key, req)
	queueIndex := k.AppendToQueue(ctx, types.QueueDecrease, key)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeCreateDecreasePosition,
			sdk.NewAttribute(types.AttributeKeyKey, types.FormatRequestKey(key)),
			sdk.NewAttribute(types.AttributeKeyAccount, req.Account),
			sdk.NewAttribute(types.AttributeKeyCollateralDenom, req.CollateralDenom),
			sdk.NewAttribute(types.AttributeKeyMarketID, req.MarketID),
			sdk.NewAttribute(types.AttributeKeyCollateralDelta, req.CollateralDelta.String()),
			sdk.NewAttribute(types.AttributeKeySizeDelta, req.SizeDelta.String()),
			sdk.NewAttribute(types.AttributeKeyIsLong, fmt.Sprintf("%t", req.IsLong)),
			sdk.NewAttribute(types.AttributeKeyReceiver, req.Receiver),
			sdk.NewAttribute(types.AttributeKeyAcceptablePrice, req.AcceptablePrice.String()),
			sdk.NewAttribute(types.AttributeKeyExecutionFee, req.ExecutionFee.String()),
			sdk.NewAttribute(types.AttributeKeyIndex, fmt.Sprintf("%d", req.Index)),
			sdk.NewAttribute(types.AttributeKeyQueueIndex, fmt.Sprintf("%d", queueIndex)),
			sdk.NewAttribute(types.AttributeKeyBlockHeight, fmt.Sprintf("%d", req.BlockHeight)),
			sdk.NewAttribute(types.AttributeKeyBlockTime, fmt.Sprintf("%d", req.BlockTime)),
			sdk.NewAttribute(types.AttributeKeyWithdrawNative, fmt.Sprintf("%t", req.WithdrawNative)),
		),
	)

	k.logger.Info("decrease request created",
		"key", types.FormatRequestKey(key),
		"account", req.Account,
		"index", req.Index,
		"queue_index", queueIndex,
	)

	return req.Index, key, nil
}

// SetDecreaseRequest saves a decrease request under key
func (k *Keeper) SetDecreaseRequest(ctx sdk.Context, key []byte, req *types.DecreasePositionRequest) {
	bz, _ := json.Marshal(req)
	k.GetStore(ctx).Set(types.RequestStoreKey(types.QueueDecrease, key), bz)
}

// GetDecreaseRequest retrieves a decrease request
func (k *Keeper) GetDecreaseRequest(ctx sdk.Context, key []byte) (*types.DecreasePositionRequest, bool) {
	bz := k.GetStore(ctx).Get(types.RequestStoreKey(types.QueueDecrease, key))
	if bz == nil {
		return nil, false
	}
	var req types.DecreasePositionRequest
	if err := json.Unmarshal(bz, &req); err != nil {
		return nil, false
	}
	return &req, true
}

// RemoveDecreaseRequest deletes a decrease request; absent keys are a no-op
func (k *Keeper) RemoveDecreaseRequest(ctx sdk.Context, key []byte) {
	k.GetStore(ctx).Delete(types.RequestStoreKey(types.QueueDecrease, key))
}

// GetAllDecreaseRequests returns every pending decrease request
func (k *Keeper) GetAllDecreaseRequests(ctx sdk.Context) []types.DecreasePositionRequest {
	iterator := storetypes.KVStorePrefixIterator(k.GetStore(ctx), types.DecreaseRequestKeyPrefix)
	defer iterator.Close()

	var requests []types.DecreasePositionRequest
	for ; iterator.Valid(); iterator.Next() {
		var req types.DecreasePositionRequest
		if err := json.Unmarshal(iterator.Value(), &req); err != nil {
			continue
		}
		requests = append(requests, req)
	}
	return requests
}

// hasRequest reports whether a live record exists for key in kind's store
func (k *Keeper) hasRequest(ctx sdk.Context, kind types.QueueKind, key []byte) bool {
	return k.GetStore(ctx).Has(types.RequestStoreKey(kind, key))
}

// ============ Per-account listing ============

// GetAccountIncreaseRequests returns the account's pending increase requests in index order
func (k *Keeper) GetAccountIncreaseRequests(ctx sdk.Context, account sdk.AccAddress) []types.IncreasePositionRequest {
	last := k.GetRequestIndex(ctx, types.QueueIncrease, account)
	var requests []types.IncreasePositionRequest
	for i := uint64(1); i <= last; i++ {
		if req, found := k.GetIncreaseRequest(ctx, types.RequestKey(account, i)); found {
			requests = append(requests, *req)
		}
	}
	return requests
}

// GetAccountDecreaseRequests returns the account's pending decrease requests in index order
func (k *Keeper) GetAccountDecreaseRequests(ctx sdk.Context, account sdk.AccAddress) []types.DecreasePositionRequest {
	last := k.GetRequestIndex(ctx, types.QueueDecrease, account)
	var requests []types.DecreasePositionRequest
	for i := uint64(1); i <= last; i++ {
		if req, found := k.GetDecreaseRequest(ctx, types.RequestKey(account, i)); found {
			requests = append(requests, *req)
		}
	}
	return requests
}
