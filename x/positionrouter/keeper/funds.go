package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"

	"github.com/openalpha/perp-router/x/positionrouter/types"
)

// receiverModules are module accounts paid by module-to-module transfer.
// The bank keeper refuses plain sends to them.
var receiverModules = []string{authtypes.FeeCollectorName}

func coins(denom string, amount math.Int) sdk.Coins {
	return sdk.NewCoins(sdk.NewCoin(denom, amount))
}

func moduleRecipient(addr sdk.AccAddress) (string, bool) {
	for _, name := range receiverModules {
		if addr.Equals(authtypes.NewModuleAddress(name)) {
			return name, true
		}
	}
	return "", false
}

// push sends router-held coins to receiver, routing module accounts through
// PushToModule
func (k *Keeper) push(ctx sdk.Context, receiver sdk.AccAddress, amt sdk.Coins) error {
	if name, ok := moduleRecipient(receiver); ok {
		return k.assets.PushToModule(ctx, name, amt)
	}
	return k.assets.PushToAccount(ctx, receiver, amt)
}

// collectPayment pulls the native payment from account and wraps it, so
// execution fees and native collateral are held as the wrapped denom.
func (k *Keeper) collectPayment(ctx sdk.Context, params types.Params, account sdk.AccAddress, payment math.Int) error {
	if !payment.IsPositive() {
		return nil
	}
	if err := k.assets.PullFromAccount(ctx, account, coins(params.NativeDenom, payment)); err != nil {
		return types.ErrTransferFailed.Wrapf("pull payment: %s", err)
	}
	if err := k.assets.WrapNative(ctx, params.NativeDenom, params.WrappedNativeDenom, payment); err != nil {
		return types.ErrTransferFailed.Wrapf("wrap payment: %s", err)
	}
	return nil
}

// payExecutionFee unwraps the held fee and sends it to receiver
func (k *Keeper) payExecutionFee(ctx sdk.Context, params types.Params, receiver sdk.AccAddress, fee math.Int) error {
	return k.sendNative(ctx, params, receiver, fee)
}

// sendNative unwraps amount of the wrapped native denom and sends it to receiver
func (k *Keeper) sendNative(ctx sdk.Context, params types.Params, receiver sdk.AccAddress, amount math.Int) error {
	if !amount.IsPositive() {
		return nil
	}
	if err := k.assets.UnwrapNative(ctx, params.NativeDenom, params.WrappedNativeDenom, amount); err != nil {
		return types.ErrTransferFailed.Wrapf("unwrap: %s", err)
	}
	if err := k.push(ctx, receiver, coins(params.NativeDenom, amount)); err != nil {
		return types.ErrTransferFailed.Wrapf("send %s%s: %s", amount, params.NativeDenom, err)
	}
	return nil
}

// sendToken sends amount of denom held by the router to receiver
func (k *Keeper) sendToken(ctx sdk.Context, receiver sdk.AccAddress, denom string, amount math.Int) error {
	if !amount.IsPositive() {
		return nil
	}
	if err := k.push(ctx, receiver, coins(denom, amount)); err != nil {
		return types.ErrTransferFailed.Wrapf("send %s%s: %s", amount, denom, err)
	}
	return nil
}

// elapsedAttributes renders the block and time gap since created
func elapsedAttributes(created, now types.Clock) []sdk.Attribute {
	blocks, seconds := created.Since(now)
	return []sdk.Attribute{
		sdk.NewAttribute(types.AttributeKeyBlockGap, math.NewInt(blocks).String()),
		sdk.NewAttribute(types.AttributeKeyTimeGap, math.NewInt(seconds).String()),
	}
}
