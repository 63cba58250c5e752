package keeper

import (
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/perp-router/x/positionrouter/types"
)

// SubmitDecreasePosition validates the attached payment, takes custody of
// the execution fee and queues the request.
func (k *Keeper) SubmitDecreasePosition(ctx sdk.Context, req *types.DecreasePositionRequest, payment math.Int) (uint64, []byte, error) {
	params := k.GetParams(ctx)

	if req.ExecutionFee.LT(params.MinExecutionFee) {
		return 0, nil, types.ErrInvalidExecutionFee.Wrapf("fee %s below minimum %s", req.ExecutionFee, params.MinExecutionFee)
	}
	if !payment.Equal(req.ExecutionFee) {
		return 0, nil, types.ErrInvalidPayment.Wrapf("payment %s must equal execution fee %s", payment, req.ExecutionFee)
	}
	if req.WithdrawNative && req.CollateralDenom != params.WrappedNativeDenom {
		return 0, nil, types.ErrInvalidDenom.Wrapf("native withdrawal requires %s collateral", params.WrappedNativeDenom)
	}
	if err := req.Validate(); err != nil {
		return 0, nil, err
	}
	account, _ := sdk.AccAddressFromBech32(req.Account)

	if err := k.collectPayment(ctx, params, account, payment); err != nil {
		return 0, nil, err
	}

	return k.CreateDecreaseRequest(ctx, req)
}

// ExecuteDecreasePosition applies a queued decrease request and pays the
// ledger payout to the receiver. It returns false without touching state
// when the request is not yet eligible.
func (k *Keeper) ExecuteDecreasePosition(ctx sdk.Context, key []byte, feeReceiver sdk.AccAddress, role types.CallerRole) (bool, error) {
	req, found := k.GetDecreaseRequest(ctx, key)
	if !found {
		return false, types.ErrRequestNotFound.Wrapf("decrease request %s", types.FormatRequestKey(key))
	}

	params := k.GetParams(ctx)
	now := k.clock(ctx)
	ok, err := params.CanExecute(role, req.Created(), now)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	k.RemoveDecreaseRequest(ctx, key)

	payout, err := k.ledger.DecreasePosition(
		ctx, req.Account, req.CollateralDenom, req.MarketID,
		req.CollateralDelta, req.SizeDelta, req.IsLong, req.AcceptablePrice,
		types.ModuleName,
	)
	if err != nil {
		return false, types.ErrLedgerRejection.Wrapf("decrease position: %s", err)
	}

	receiver, _ := sdk.AccAddressFromBech32(req.Receiver)
	if req.WithdrawNative {
		err = k.sendNative(ctx, params, receiver, payout)
	} else {
		err = k.sendToken(ctx, receiver, req.CollateralDenom, payout)
	}
	if err != nil {
		return false, err
	}

	if err := k.payExecutionFee(ctx, params, feeReceiver, req.ExecutionFee); err != nil {
		return false, err
	}

	attrs := []sdk.Attribute{
		sdk.NewAttribute(types.AttributeKeyKey, types.FormatRequestKey(key)),
		sdk.NewAttribute(types.AttributeKeyAccount, req.Account),
		sdk.NewAttribute(types.AttributeKeyIndex, fmt.Sprintf("%d", req.Index)),
		sdk.NewAttribute(types.AttributeKeyMarketID, req.MarketID),
		sdk.NewAttribute(types.AttributeKeyCollateralDenom, req.CollateralDenom),
		sdk.NewAttribute(types.AttributeKeyCollateralDelta, req.CollateralDelta.String()),
		sdk.NewAttribute(types.AttributeKeySizeDelta, req.SizeDelta.String()),
		sdk.NewAttribute(types.AttributeKeyIsLong, fmt.Sprintf("%t", req.IsLong)),
		sdk.NewAttribute(types.AttributeKeyReceiver, req.Receiver),
		sdk.NewAttribute(types.AttributeKeyPayout, payout.String()),
		sdk.NewAttribute(types.AttributeKeyWithdrawNative, fmt.Sprintf("%t", req.WithdrawNative)),
		sdk.NewAttribute(types.AttributeKeyExecutionFee, req.ExecutionFee.String()),
		sdk.NewAttribute(types.AttributeKeyFeeReceiver, feeReceiver.String()),
		sdk.NewAttribute(types.AttributeKeyParamsVersion, fmt.Sprintf("%d", params.Version)),
	}
	ctx.EventManager().EmitEvent(
		sdk.NewEvent(types.EventTypeExecuteDecreasePosition, append(attrs, elapsedAttributes(req.Created(), now)...)...),
	)

	blocks, seconds := req.Created().Since(now)
	k.logger.Info("decrease request executed",
		"key", types.FormatRequestKey(key),
		"account", req.Account,
		"payout", payout.String(),
		"role", role.String(),
		"block_gap", blocks,
		"time_gap", seconds,
	)

	return true, nil
}

// CancelDecreasePosition drops a queued decrease request and pays the
// execution fee. An ineligible cancel fails with ErrCancelNotReady.
func (k *Keeper) CancelDecreasePosition(ctx sdk.Context, key []byte, feeReceiver, caller sdk.AccAddress, role types.CallerRole) error {
	req, found := k.GetDecreaseRequest(ctx, key)
	if !found {
		return types.ErrRequestNotFound.Wrapf("decrease request %s", types.FormatRequestKey(key))
	}

	params := k.GetParams(ctx)
	now := k.clock(ctx)
	ok, err := params.CanCancel(role, req.Account, caller.String(), req.Created(), now)
	if err != nil {
		return err
	}
	if !ok {
		return types.ErrCancelNotReady.Wrapf("decrease request %s", types.FormatRequestKey(key))
	}

	k.RemoveDecreaseRequest(ctx, key)

	if err := k.payExecutionFee(ctx, params, feeReceiver, req.ExecutionFee); err != nil {
		return err
	}

	attrs := []sdk.Attribute{
		sdk.NewAttribute(types.AttributeKeyKey, types.FormatRequestKey(key)),
		sdk.NewAttribute(types.AttributeKeyAccount, req.Account),
		sdk.NewAttribute(types.AttributeKeyIndex, fmt.Sprintf("%d", req.Index)),
		sdk.NewAttribute(types.AttributeKeyExecutionFee, req.ExecutionFee.String()),
		sdk.NewAttribute(types.AttributeKeyFeeReceiver, feeReceiver.String()),
		sdk.NewAttribute(types.AttributeKeyParamsVersion, fmt.Sprintf("%d", params.Version)),
	}
	ctx.EventManager().EmitEvent(
		sdk.NewEvent(types.EventTypeCancelDecreasePosition, append(attrs, elapsedAttributes(req.Created(), now)...)...),
	)

	k.logger.Info("decrease request cancelled",
		"key", types.FormatRequestKey(key),
		"account", req.Account,
		"role", role.String(),
	)

	return nil
}
