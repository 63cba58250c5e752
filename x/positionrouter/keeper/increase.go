package keeper

import (
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/perp-router/x/positionrouter/types"
)

// SubmitIncreasePosition validates the attached payment against params,
// takes custody of the funds and queues the request.
func (k *Keeper) SubmitIncreasePosition(ctx sdk.Context, req *types.IncreasePositionRequest, payment math.Int) (uint64, []byte, error) {
	params := k.GetParams(ctx)

	if len(req.Path) != 1 && len(req.Path) != 2 {
		return 0, nil, types.ErrInvalidPath.Wrapf("path length %d", len(req.Path))
	}
	if req.ExecutionFee.LT(params.MinExecutionFee) {
		return 0, nil, types.ErrInvalidExecutionFee.Wrapf("fee %s below minimum %s", req.ExecutionFee, params.MinExecutionFee)
	}

	if req.HasCollateralInNative {
		if payment.LT(req.ExecutionFee) {
			return 0, nil, types.ErrInvalidPayment.Wrapf("payment %s below execution fee %s", payment, req.ExecutionFee)
		}
		if req.Path[0] != params.WrappedNativeDenom {
			return 0, nil, types.ErrInvalidPath.Wrapf("native input requires path to start with %s", params.WrappedNativeDenom)
		}
		req.AmountIn = payment.Sub(req.ExecutionFee)
	} else if !payment.Equal(req.ExecutionFee) {
		return 0, nil, types.ErrInvalidPayment.Wrapf("payment %s must equal execution fee %s", payment, req.ExecutionFee)
	}

	if err := req.Validate(); err != nil {
		return 0, nil, err
	}
	account, _ := sdk.AccAddressFromBech32(req.Account)

	if err := k.collectPayment(ctx, params, account, payment); err != nil {
		return 0, nil, err
	}
	if !req.HasCollateralInNative && req.AmountIn.IsPositive() {
		if err := k.assets.PullFromAccount(ctx, account, coins(req.InputDenom(), req.AmountIn)); err != nil {
			return 0, nil, types.ErrTransferFailed.Wrapf("pull amount in: %s", err)
		}
	}

	return k.CreateIncreaseRequest(ctx, req)
}

// ExecuteIncreasePosition applies a queued increase request. It returns
// false without touching state when the request is not yet eligible.
func (k *Keeper) ExecuteIncreasePosition(ctx sdk.Context, key []byte, feeReceiver sdk.AccAddress, role types.CallerRole) (bool, error) {
	req, found := k.GetIncreaseRequest(ctx, key)
	if !found {
		return false, types.ErrRequestNotFound.Wrapf("increase request %s", types.FormatRequestKey(key))
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

	k.RemoveIncreaseRequest(ctx, key)

	collateral := req.CollateralDenom()
	amount := req.AmountIn
	depositFee := math.ZeroInt()

	if amount.IsPositive() {
		if len(req.Path) > 1 {
			if err := k.assets.PushToModule(ctx, k.ledger.ModuleName(), coins(req.InputDenom(), amount)); err != nil {
				return false, types.ErrTransferFailed.Wrapf("forward swap input: %s", err)
			}
			out, err := k.ledger.Swap(ctx, req.Path[0], req.Path[1], amount, req.MinOut, types.ModuleName)
			if err != nil {
				return false, types.ErrLedgerRejection.Wrapf("swap %s->%s: %s", req.Path[0], req.Path[1], err)
			}
			amount = out
		}

		depositFee = params.DepositFee(amount)
		if depositFee.IsPositive() {
			if err := k.addFeeReserve(ctx, collateral, depositFee); err != nil {
				return false, err
			}
			amount = amount.Sub(depositFee)
		}

		if amount.IsPositive() {
			if err := k.assets.PushToModule(ctx, k.ledger.ModuleName(), coins(collateral, amount)); err != nil {
				return false, types.ErrTransferFailed.Wrapf("forward collateral: %s", err)
			}
		}
	}

	err = k.ledger.IncreasePosition(ctx, req.Account, collateral, req.MarketID, amount, req.SizeDelta, req.IsLong, req.AcceptablePrice)
	if err != nil {
		return false, types.ErrLedgerRejection.Wrapf("increase position: %s", err)
	}

	if err := k.payExecutionFee(ctx, params, feeReceiver, req.ExecutionFee); err != nil {
		return false, err
	}

	attrs := []sdk.Attribute{
		sdk.NewAttribute(types.AttributeKeyKey, types.FormatRequestKey(key)),
		sdk.NewAttribute(types.AttributeKeyAccount, req.Account),
		sdk.NewAttribute(types.AttributeKeyIndex, fmt.Sprintf("%d", req.Index)),
		sdk.NewAttribute(types.AttributeKeyMarketID, req.MarketID),
		sdk.NewAttribute(types.AttributeKeyCollateralDenom, collateral),
		sdk.NewAttribute(types.AttributeKeyCollateralDelta, amount.String()),
		sdk.NewAttribute(types.AttributeKeyDepositFee, depositFee.String()),
		sdk.NewAttribute(types.AttributeKeySizeDelta, req.SizeDelta.String()),
		sdk.NewAttribute(types.AttributeKeyIsLong, fmt.Sprintf("%t", req.IsLong)),
		sdk.NewAttribute(types.AttributeKeyAcceptablePrice, req.AcceptablePrice.String()),
		sdk.NewAttribute(types.AttributeKeyExecutionFee, req.ExecutionFee.String()),
		sdk.NewAttribute(types.AttributeKeyFeeReceiver, feeReceiver.String()),
		sdk.NewAttribute(types.AttributeKeyParamsVersion, fmt.Sprintf("%d", params.Version)),
	}
	ctx.EventManager().EmitEvent(
		sdk.NewEvent(types.EventTypeExecuteIncreasePosition, append(attrs, elapsedAttributes(req.Created(), now)...)...),
	)

	blocks, seconds := req.Created().Since(now)
	k.logger.Info("increase request executed",
		"key", types.FormatRequestKey(key),
		"account", req.Account,
		"role", role.String(),
		"block_gap", blocks,
		"time_gap", seconds,
	)

	return true, nil
}

// CancelIncreasePosition refunds a queued increase request to its owner.
// Unlike execution there is no soft "not yet" result: an ineligible cancel
// fails with ErrCancelNotReady.
func (k *Keeper) CancelIncreasePosition(ctx sdk.Context, key []byte, feeReceiver, caller sdk.AccAddress, role types.CallerRole) error {
	req, found := k.GetIncreaseRequest(ctx, key)
	if !found {
		return types.ErrRequestNotFound.Wrapf("increase request %s", types.FormatRequestKey(key))
	}

	params := k.GetParams(ctx)
	now := k.clock(ctx)
	ok, err := params.CanCancel(role, req.Account, caller.String(), req.Created(), now)
	if err != nil {
		return err
	}
	if !ok {
		return types.ErrCancelNotReady.Wrapf("increase request %s", types.FormatRequestKey(key))
	}

	k.RemoveIncreaseRequest(ctx, key)

	account, _ := sdk.AccAddressFromBech32(req.Account)
	if req.HasCollateralInNative {
		err = k.sendNative(ctx, params, account, req.AmountIn)
	} else {
		err = k.sendToken(ctx, account, req.InputDenom(), req.AmountIn)
	}
	if err != nil {
		return err
	}

	if err := k.payExecutionFee(ctx, params, feeReceiver, req.ExecutionFee); err != nil {
		return err
	}

	attrs := []sdk.Attribute{
		sdk.NewAttribute(types.AttributeKeyKey, types.FormatRequestKey(key)),
		sdk.NewAttribute(types.AttributeKeyAccount, req.Account),
		sdk.NewAttribute(types.AttributeKeyIndex, fmt.Sprintf("%d", req.Index)),
		sdk.NewAttribute(types.AttributeKeyPath, req.InputDenom()),
		sdk.NewAttribute(types.AttributeKeyAmountIn, req.AmountIn.String()),
		sdk.NewAttribute(types.AttributeKeyExecutionFee, req.ExecutionFee.String()),
		sdk.NewAttribute(types.AttributeKeyFeeReceiver, feeReceiver.String()),
		sdk.NewAttribute(types.AttributeKeyParamsVersion, fmt.Sprintf("%d", params.Version)),
	}
	ctx.EventManager().EmitEvent(
		sdk.NewEvent(types.EventTypeCancelIncreasePosition, append(attrs, elapsedAttributes(req.Created(), now)...)...),
	)

	k.logger.Info("increase request cancelled",
		"key", types.FormatRequestKey(key),
		"account", req.Account,
		"role", role.String(),
	)

	return nil
}
