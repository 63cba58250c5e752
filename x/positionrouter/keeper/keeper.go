package keeper

import (
	"encoding/json"
	"fmt"

	"cosmossdk.io/collections"
	"cosmossdk.io/log"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	"github.com/cosmos/cosmos-sdk/runtime"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"

	"github.com/openalpha/perp-router/x/positionrouter/types"
)

// Keeper manages the position router state: the request store, the two
// request queues, the keeper allow-list and collected deposit fees.
type Keeper struct {
	cdc       codec.BinaryCodec
	storeKey  *storetypes.KVStoreKey
	tstoreKey *storetypes.TransientStoreKey
	ledger    types.PositionLedger
	assets    types.AssetTransferService
	logger    log.Logger
	authority string

	Schema          collections.Schema
	PositionKeepers collections.KeySet[sdk.AccAddress]
	FeeReserves     collections.Map[string, math.Int]
}

// NewKeeper creates a new positionrouter keeper
func NewKeeper(
	cdc codec.BinaryCodec,
	storeKey *storetypes.KVStoreKey,
	tstoreKey *storetypes.TransientStoreKey,
	ledger types.PositionLedger,
	assets types.AssetTransferService,
	authority string,
	logger log.Logger,
) *Keeper {
	sb := collections.NewSchemaBuilder(runtime.NewKVStoreService(storeKey))

	k := &Keeper{
		cdc:       cdc,
		storeKey:  storeKey,
		tstoreKey: tstoreKey,
		ledger:    ledger,
		assets:    assets,
		authority: authority,
		logger:    logger.With("module", "x/"+types.ModuleName),

		PositionKeepers: collections.NewKeySet(sb, types.PositionKeepersPrefix, "position_keepers", sdk.AccAddressKey),
		FeeReserves:     collections.NewMap(sb, types.FeeReservesPrefix, "fee_reserves", collections.StringKey, sdk.IntValue),
	}

	schema, err := sb.Build()
	if err != nil {
		panic(fmt.Sprintf("positionrouter schema: %s", err))
	}
	k.Schema = schema

	return k
}

// Logger returns the module logger
func (k *Keeper) Logger() log.Logger {
	return k.logger
}

// GetAuthority returns the governance authority address
func (k *Keeper) GetAuthority() string {
	return k.authority
}

// GetStore returns the KVStore
func (k *Keeper) GetStore(ctx sdk.Context) storetypes.KVStore {
	return ctx.KVStore(k.storeKey)
}

// ModuleAddress returns the router module account that holds pending funds
func (k *Keeper) ModuleAddress() sdk.AccAddress {
	return authtypes.NewModuleAddress(types.ModuleName)
}

func (k *Keeper) clock(ctx sdk.Context) types.Clock {
	return types.Clock{Height: ctx.BlockHeight(), Time: ctx.BlockTime().Unix()}
}

// ============ Params ============

// GetParams returns the current params snapshot
func (k *Keeper) GetParams(ctx sdk.Context) types.Params {
	bz := k.GetStore(ctx).Get(types.ParamsKey)
	if bz == nil {
		return types.DefaultParams()
	}
	var params types.Params
	if err := json.Unmarshal(bz, &params); err != nil {
		return types.DefaultParams()
	}
	return params
}

// SetParams saves params to the store
func (k *Keeper) SetParams(ctx sdk.Context, params types.Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	bz, err := json.Marshal(params)
	if err != nil {
		return err
	}
	k.GetStore(ctx).Set(types.ParamsKey, bz)
	return nil
}

// UpdateParams replaces the params and bumps the snapshot version
func (k *Keeper) UpdateParams(ctx sdk.Context, params types.Params) (types.Params, error) {
	current := k.GetParams(ctx)
	params.Version = current.Version + 1
	if err := k.SetParams(ctx, params); err != nil {
		return current, err
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeUpdateParams,
			sdk.NewAttribute(types.AttributeKeyParamsVersion, fmt.Sprintf("%d", params.Version)),
		),
	)
	k.logger.Info("router params updated", "params", params.String())

	return params, nil
}

// ============ Position keepers ============

// IsPositionKeeper reports whether addr is on the keeper allow-list
func (k *Keeper) IsPositionKeeper(ctx sdk.Context, addr sdk.AccAddress) bool {
	ok, err := k.PositionKeepers.Has(ctx, addr)
	if err != nil {
		return false
	}
	return ok
}

// SetPositionKeeper adds or removes addr from the keeper allow-list
func (k *Keeper) SetPositionKeeper(ctx sdk.Context, addr sdk.AccAddress, active bool) error {
	var err error
	if active {
		err = k.PositionKeepers.Set(ctx, addr)
	} else {
		err = k.PositionKeepers.Remove(ctx, addr)
	}
	if err != nil {
		return err
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeSetPositionKeeper,
			sdk.NewAttribute(types.AttributeKeyKeeper, addr.String()),
			sdk.NewAttribute(types.AttributeKeyActive, fmt.Sprintf("%t", active)),
		),
	)
	k.logger.Info("position keeper updated", "keeper", addr.String(), "active", active)
	return nil
}

// GetPositionKeepers returns the allow-list in address order
func (k *Keeper) GetPositionKeepers(ctx sdk.Context) ([]string, error) {
	var keepers []string
	err := k.PositionKeepers.Walk(ctx, nil, func(addr sdk.AccAddress) (bool, error) {
		keepers = append(keepers, addr.String())
		return false, nil
	})
	return keepers, err
}

// CallerRoleFor classifies a message sender for admission checks
func (k *Keeper) CallerRoleFor(ctx sdk.Context, addr sdk.AccAddress) types.CallerRole {
	if k.IsPositionKeeper(ctx, addr) {
		return types.CallerKeeper
	}
	return types.CallerPublic
}

// ============ Fee reserves ============

// GetFeeReserve returns the collected deposit fees of denom
func (k *Keeper) GetFeeReserve(ctx sdk.Context, denom string) math.Int {
	amount, err := k.FeeReserves.Get(ctx, denom)
	if err != nil {
		return math.ZeroInt()
	}
	return amount
}

func (k *Keeper) addFeeReserve(ctx sdk.Context, denom string, amount math.Int) error {
	return k.FeeReserves.Set(ctx, denom, k.GetFeeReserve(ctx, denom).Add(amount))
}

// GetFeeReserves returns every non-zero fee reserve
func (k *Keeper) GetFeeReserves(ctx sdk.Context) (sdk.Coins, error) {
	coins := sdk.NewCoins()
	err := k.FeeReserves.Walk(ctx, nil, func(denom string, amount math.Int) (bool, error) {
		if amount.IsPositive() {
			coins = coins.Add(sdk.NewCoin(denom, amount))
		}
		return false, nil
	})
	return coins, err
}

// WithdrawFees sends collected deposit fees to receiver
func (k *Keeper) WithdrawFees(ctx sdk.Context, denom string, amount math.Int, receiver sdk.AccAddress) (math.Int, error) {
	reserve := k.GetFeeReserve(ctx, denom)
	if amount.GT(reserve) {
		return reserve, types.ErrInvalidAmount.Wrapf("withdraw %s%s exceeds reserve %s", amount, denom, reserve)
	}

	remaining := reserve.Sub(amount)
	if err := k.FeeReserves.Set(ctx, denom, remaining); err != nil {
		return reserve, err
	}
	if err := k.push(ctx, receiver, sdk.NewCoins(sdk.NewCoin(denom, amount))); err != nil {
		return reserve, types.ErrTransferFailed.Wrap(err.Error())
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeWithdrawFees,
			sdk.NewAttribute(types.AttributeKeyDenom, denom),
			sdk.NewAttribute(types.AttributeKeyAmount, amount.String()),
			sdk.NewAttribute(types.AttributeKeyReceiver, receiver.String()),
		),
	)
	return remaining, nil
}
