package keeper

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/perp-router/x/positionrouter/types"
)

// QueryServer defines the positionrouter QueryServer
type QueryServer struct {
	keeper *Keeper
}

// NewQueryServerImpl creates a new QueryServer instance
func NewQueryServerImpl(keeper *Keeper) *QueryServer {
	return &QueryServer{keeper: keeper}
}

// AccountRequests groups an account's pending requests
type AccountRequests struct {
	Account          string                          `json:"account"`
	IncreaseIndex    uint64                          `json:"increase_index"`
	DecreaseIndex    uint64                          `json:"decrease_index"`
	IncreaseRequests []types.IncreasePositionRequest `json:"increase_requests"`
	DecreaseRequests []types.DecreasePositionRequest `json:"decrease_requests"`
}

// RequestKey returns the hex key of the index-th request created by account
func (q *QueryServer) RequestKey(ctx context.Context, account string, index uint64) (string, error) {
	addr, err := sdk.AccAddressFromBech32(account)
	if err != nil {
		return "", types.ErrInvalidAddress.Wrap(err.Error())
	}
	return types.FormatRequestKey(types.RequestKey(addr, index)), nil
}

// QueueLengths returns both queues' cursors and lengths
func (q *QueryServer) QueueLengths(ctx context.Context) (types.QueueLengths, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return q.keeper.GetQueueLengths(sdkCtx), nil
}

// IncreaseRequest returns a pending increase request by hex key
func (q *QueryServer) IncreaseRequest(ctx context.Context, keyHex string) (*types.IncreasePositionRequest, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	key, err := types.ParseRequestKey(keyHex)
	if err != nil {
		return nil, types.ErrRequestNotFound.Wrap(err.Error())
	}
	req, found := q.keeper.GetIncreaseRequest(sdkCtx, key)
	if !found {
		return nil, types.ErrRequestNotFound.Wrapf("increase request %s", keyHex)
	}
	return req, nil
}

// DecreaseRequest returns a pending decrease request by hex key
func (q *QueryServer) DecreaseRequest(ctx context.Context, keyHex string) (*types.DecreasePositionRequest, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	key, err := types.ParseRequestKey(keyHex)
	if err != nil {
		return nil, types.ErrRequestNotFound.Wrap(err.Error())
	}
	req, found := q.keeper.GetDecreaseRequest(sdkCtx, key)
	if !found {
		return nil, types.ErrRequestNotFound.Wrapf("decrease request %s", keyHex)
	}
	return req, nil
}

// RequestsByAccount returns an account's counters and pending requests
func (q *QueryServer) RequestsByAccount(ctx context.Context, account string) (*AccountRequests, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	addr, err := sdk.AccAddressFromBech32(account)
	if err != nil {
		return nil, types.ErrInvalidAddress.Wrap(err.Error())
	}
	return &AccountRequests{
		Account:          account,
		IncreaseIndex:    q.keeper.GetRequestIndex(sdkCtx, types.QueueIncrease, addr),
		DecreaseIndex:    q.keeper.GetRequestIndex(sdkCtx, types.QueueDecrease, addr),
		IncreaseRequests: q.keeper.GetAccountIncreaseRequests(sdkCtx, addr),
		DecreaseRequests: q.keeper.GetAccountDecreaseRequests(sdkCtx, addr),
	}, nil
}

// Params returns the current params
func (q *QueryServer) Params(ctx context.Context) (types.Params, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return q.keeper.GetParams(sdkCtx), nil
}

// PositionKeepers returns the keeper allow-list
func (q *QueryServer) PositionKeepers(ctx context.Context) ([]string, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return q.keeper.GetPositionKeepers(sdkCtx)
}

// FeeReserves returns collected deposit fees
func (q *QueryServer) FeeReserves(ctx context.Context) (sdk.Coins, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return q.keeper.GetFeeReserves(sdkCtx)
}
