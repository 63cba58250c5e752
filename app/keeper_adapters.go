package app

import (
	"context"
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	routertypes "github.com/openalpha/perp-router/x/positionrouter/types"
)

// BankKeeper is the subset of the bank keeper the router adapter needs
type BankKeeper interface {
	SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error
	SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error
	SendCoinsFromModuleToModule(ctx context.Context, senderModule, recipientModule string, amt sdk.Coins) error
	MintCoins(ctx context.Context, moduleName string, amt sdk.Coins) error
	BurnCoins(ctx context.Context, moduleName string, amt sdk.Coins) error
}

// bankAssetTransfer moves router funds through the bank module. The router
// module account is the custodian; native wrapping burns one denom and mints
// the other 1:1 inside that account.
type bankAssetTransfer struct {
	bank   BankKeeper
	module string
}

var _ routertypes.AssetTransferService = bankAssetTransfer{}

func newBankAssetTransfer(bank BankKeeper) routertypes.AssetTransferService {
	return bankAssetTransfer{bank: bank, module: routertypes.ModuleName}
}

func (a bankAssetTransfer) PullFromAccount(ctx sdk.Context, from sdk.AccAddress, amt sdk.Coins) error {
	if amt.IsZero() {
		return nil
	}
	return a.bank.SendCoinsFromAccountToModule(ctx, from, a.module, amt)
}

func (a bankAssetTransfer) PushToAccount(ctx sdk.Context, to sdk.AccAddress, amt sdk.Coins) error {
	if amt.IsZero() {
		return nil
	}
	return a.bank.SendCoinsFromModuleToAccount(ctx, a.module, to, amt)
}

func (a bankAssetTransfer) PushToModule(ctx sdk.Context, recipientModule string, amt sdk.Coins) error {
	if amt.IsZero() {
		return nil
	}
	return a.bank.SendCoinsFromModuleToModule(ctx, a.module, recipientModule, amt)
}

func (a bankAssetTransfer) WrapNative(ctx sdk.Context, nativeDenom, wrappedDenom string, amount math.Int) error {
	return a.convert(ctx, nativeDenom, wrappedDenom, amount)
}

func (a bankAssetTransfer) UnwrapNative(ctx sdk.Context, nativeDenom, wrappedDenom string, amount math.Int) error {
	return a.convert(ctx, wrappedDenom, nativeDenom, amount)
}

func (a bankAssetTransfer) convert(ctx sdk.Context, from, to string, amount math.Int) error {
	if amount.IsNil() || amount.IsZero() {
		return nil
	}
	if amount.IsNegative() {
		return fmt.Errorf("negative conversion amount %s", amount)
	}
	if err := a.bank.BurnCoins(ctx, a.module, sdk.NewCoins(sdk.NewCoin(from, amount))); err != nil {
		return fmt.Errorf("burn %s%s: %w", amount, from, err)
	}
	if err := a.bank.MintCoins(ctx, a.module, sdk.NewCoins(sdk.NewCoin(to, amount))); err != nil {
		return fmt.Errorf("mint %s%s: %w", amount, to, err)
	}
	return nil
}
