package keeper

import (
	"context"
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/perp-router/x/perpetual/types"
)

var _ types.MsgServer = (*msgServer)(nil)

type msgServer struct {
	Keeper *Keeper
}

// NewMsgServerImpl returns an implementation of the MsgServer interface
func NewMsgServerImpl(keeper *Keeper) types.MsgServer {
	return &msgServer{Keeper: keeper}
}

// SetMarket handles the MsgSetMarket message
func (m *msgServer) SetMarket(ctx context.Context, msg *types.MsgSetMarket) (*types.MsgSetMarketResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if msg.Authority != m.Keeper.GetAuthority() {
		return nil, types.ErrUnauthorized.Wrapf("expected %s, got %s", m.Keeper.GetAuthority(), msg.Authority)
	}
	market, err := msg.ToMarket()
	if err != nil {
		return nil, err
	}
	if err := m.Keeper.UpsertMarket(sdkCtx, market); err != nil {
		return nil, err
	}
	return &types.MsgSetMarketResponse{}, nil
}

// SetPrice handles the MsgSetPrice message
func (m *msgServer) SetPrice(ctx context.Context, msg *types.MsgSetPrice) (*types.MsgSetPriceResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if msg.Authority != m.Keeper.GetAuthority() {
		return nil, types.ErrUnauthorized.Wrapf("expected %s, got %s", m.Keeper.GetAuthority(), msg.Authority)
	}
	price, err := math.LegacyNewDecFromStr(msg.Price)
	if err != nil {
		return nil, fmt.Errorf("invalid price: %w", err)
	}
	if err := m.Keeper.PostPrice(sdkCtx, msg.Denom, price); err != nil {
		return nil, err
	}
	return &types.MsgSetPriceResponse{}, nil
}

// FundPool handles the MsgFundPool message
func (m *msgServer) FundPool(ctx context.Context, msg *types.MsgFundPool) (*types.MsgFundPoolResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	sender, _ := sdk.AccAddressFromBech32(msg.Sender)
	amount, _ := sdk.ParseCoinNormalized(msg.Amount)

	reserve, err := m.Keeper.FundPool(sdkCtx, sender, amount)
	if err != nil {
		return nil, err
	}
	return &types.MsgFundPoolResponse{Reserve: reserve.String()}, nil
}
