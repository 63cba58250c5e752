package types

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// PositionLedger applies position changes and enforces the acceptable price.
// Funds move through module accounts: the router pushes collateral to
// ModuleName() before calling IncreasePosition, and the ledger pays swap output
// and decrease payouts back to receiverModule.
type PositionLedger interface {
	ModuleName() string

	Swap(ctx sdk.Context, tokenIn, tokenOut string, amountIn, minOut math.Int, receiverModule string) (math.Int, error)

	IncreasePosition(
		ctx sdk.Context,
		account, collateralDenom, marketID string,
		collateralDelta math.Int,
		sizeDelta math.LegacyDec,
		isLong bool,
		acceptablePrice math.LegacyDec,
	) error

	DecreasePosition(
		ctx sdk.Context,
		account, collateralDenom, marketID string,
		collateralDelta math.Int,
		sizeDelta math.LegacyDec,
		isLong bool,
		acceptablePrice math.LegacyDec,
		receiverModule string,
	) (math.Int, error)
}

// AssetTransferService moves funds in and out of the router module account
type AssetTransferService interface {
	PullFromAccount(ctx sdk.Context, from sdk.AccAddress, amt sdk.Coins) error
	PushToAccount(ctx sdk.Context, to sdk.AccAddress, amt sdk.Coins) error
	PushToModule(ctx sdk.Context, recipientModule string, amt sdk.Coins) error

	// WrapNative converts amount of nativeDenom held by the router into wrappedDenom
	WrapNative(ctx sdk.Context, nativeDenom, wrappedDenom string, amount math.Int) error
	// UnwrapNative converts amount of wrappedDenom held by the router back into nativeDenom
	UnwrapNative(ctx sdk.Context, nativeDenom, wrappedDenom string, amount math.Int) error
}
