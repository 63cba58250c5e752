package keeper

import (
	"context"
	"encoding/json"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/perp-router/x/perpetual/types"
)

// BankKeeper defines the expected interface for the bank module
type BankKeeper interface {
	SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error
	SendCoinsFromModuleToModule(ctx context.Context, senderModule, recipientModule string, amt sdk.Coins) error
}

// Keeper manages markets, oracle prices, swap pools and positions
type Keeper struct {
	cdc        codec.BinaryCodec
	storeKey   storetypes.StoreKey
	bankKeeper BankKeeper
	logger     log.Logger
	authority  string // governance authority address
}

// NewKeeper creates a new perpetual keeper
func NewKeeper(
	cdc codec.BinaryCodec,
	storeKey storetypes.StoreKey,
	bankKeeper BankKeeper,
	authority string,
	logger log.Logger,
) *Keeper {
	return &Keeper{
		cdc:        cdc,
		storeKey:   storeKey,
		bankKeeper: bankKeeper,
		authority:  authority,
		logger:     logger.With("module", "x/perpetual"),
	}
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

// ModuleName returns the module account that custodies collateral and pool liquidity
func (k *Keeper) ModuleName() string {
	return types.ModuleName
}

// ============ Market Operations ============

// SetMarket saves a market to the store
func (k *Keeper) SetMarket(ctx sdk.Context, market *types.Market) {
	bz, _ := json.Marshal(market)
	k.GetStore(ctx).Set(types.MarketKey(market.MarketID), bz)
}

// GetMarket retrieves a market from the store
func (k *Keeper) GetMarket(ctx sdk.Context, marketID string) *types.Market {
	bz := k.GetStore(ctx).Get(types.MarketKey(marketID))
	if bz == nil {
		return nil
	}
	var market types.Market
	if err := json.Unmarshal(bz, &market); err != nil {
		return nil
	}
	return &market
}

// GetAllMarkets returns all markets
func (k *Keeper) GetAllMarkets(ctx sdk.Context) []*types.Market {
	return iterate[types.Market](k.GetStore(ctx), types.MarketKeyPrefix)
}

// ============ Price Operations ============

// SetPrice saves price info to the store
func (k *Keeper) SetPrice(ctx sdk.Context, price *types.PriceInfo) {
	bz, _ := json.Marshal(price)
	k.GetStore(ctx).Set(types.PriceKey(price.Denom), bz)
}

// GetPrice retrieves price info from the store
func (k *Keeper) GetPrice(ctx sdk.Context, denom string) *types.PriceInfo {
	bz := k.GetStore(ctx).Get(types.PriceKey(denom))
	if bz == nil {
		return nil
	}
	var price types.PriceInfo
	if err := json.Unmarshal(bz, &price); err != nil {
		return nil
	}
	return &price
}

// GetAllPrices returns all posted prices
func (k *Keeper) GetAllPrices(ctx sdk.Context) []*types.PriceInfo {
	return iterate[types.PriceInfo](k.GetStore(ctx), types.PriceKeyPrefix)
}

// mustPrice returns the positive price of denom or ErrPriceNotFound
func (k *Keeper) mustPrice(ctx sdk.Context, denom string) (math.LegacyDec, error) {
	price := k.GetPrice(ctx, denom)
	if price == nil || price.Price.IsNil() || !price.Price.IsPositive() {
		return math.LegacyDec{}, types.ErrPriceNotFound.Wrap(denom)
	}
	return price.Price, nil
}

// ============ Pool Operations ============

// SetPool saves a pool to the store
func (k *Keeper) SetPool(ctx sdk.Context, pool *types.Pool) {
	bz, _ := json.Marshal(pool)
	k.GetStore(ctx).Set(types.PoolKey(pool.Denom), bz)
}

// GetPool returns a denom's pool, empty when none was funded
func (k *Keeper) GetPool(ctx sdk.Context, denom string) *types.Pool {
	bz := k.GetStore(ctx).Get(types.PoolKey(denom))
	if bz == nil {
		return &types.Pool{Denom: denom, Reserve: math.ZeroInt()}
	}
	var pool types.Pool
	if err := json.Unmarshal(bz, &pool); err != nil {
		return &types.Pool{Denom: denom, Reserve: math.ZeroInt()}
	}
	return &pool
}

// GetAllPools returns all pools
func (k *Keeper) GetAllPools(ctx sdk.Context) []*types.Pool {
	return iterate[types.Pool](k.GetStore(ctx), types.PoolKeyPrefix)
}

// ============ Position Operations ============

// SetPosition saves a position to the store
func (k *Keeper) SetPosition(ctx sdk.Context, position *types.Position) {
	bz, _ := json.Marshal(position)
	k.GetStore(ctx).Set(position.Key(), bz)
}

// GetPosition retrieves a position from the store
func (k *Keeper) GetPosition(ctx sdk.Context, trader, marketID, collateralDenom string, isLong bool) *types.Position {
	bz := k.GetStore(ctx).Get(types.PositionKey(trader, marketID, collateralDenom, isLong))
	if bz == nil {
		return nil
	}
	var position types.Position
	if err := json.Unmarshal(bz, &position); err != nil {
		return nil
	}
	return &position
}

// DeletePosition removes a position from the store
func (k *Keeper) DeletePosition(ctx sdk.Context, position *types.Position) {
	k.GetStore(ctx).Delete(position.Key())
}

// GetPositionsByTrader returns all positions for a trader
func (k *Keeper) GetPositionsByTrader(ctx sdk.Context, trader string) []*types.Position {
	return iterate[types.Position](k.GetStore(ctx), types.TraderPositionPrefix(trader))
}

// GetAllPositions returns all positions
func (k *Keeper) GetAllPositions(ctx sdk.Context) []*types.Position {
	return iterate[types.Position](k.GetStore(ctx), types.PositionKeyPrefix)
}

func iterate[T any](store storetypes.KVStore, prefix []byte) []*T {
	iterator := storetypes.KVStorePrefixIterator(store, prefix)
	defer iterator.Close()

	var out []*T
	for ; iterator.Valid(); iterator.Next() {
		var v T
		if err := json.Unmarshal(iterator.Value(), &v); err != nil {
			continue
		}
		out = append(out, &v)
	}
	return out
}
