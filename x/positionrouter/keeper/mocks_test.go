package keeper

import (
	"fmt"
	"testing"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"

	"github.com/openalpha/perp-router/x/positionrouter/types"
)

const (
	testLedgerModule = "perpetual"
	testCollateral   = "uusdc"
	testAltToken     = "ubtc"
	testMarket       = "BTC-USDC"
)

var (
	alice   = sdk.AccAddress([]byte("alice_______________"))
	bob     = sdk.AccAddress([]byte("bob_________________"))
	keeper1 = sdk.AccAddress([]byte("keeper1_____________"))
	feeBot  = sdk.AccAddress([]byte("feebot______________"))
)

// mockBank keeps balances inside its own KV store so cache-context
// rollbacks apply to transfers as well.
type mockBank struct {
	key     *storetypes.KVStoreKey
	blocked map[string]bool
}

func accountHolder(addr sdk.AccAddress) string { return "acc:" + addr.String() }
func moduleHolder(name string) string          { return "mod:" + name }

func (b *mockBank) balanceKey(holder, denom string) []byte {
	return []byte("bal/" + holder + "/" + denom)
}

func (b *mockBank) balance(ctx sdk.Context, holder, denom string) math.Int {
	bz := ctx.KVStore(b.key).Get(b.balanceKey(holder, denom))
	if bz == nil {
		return math.ZeroInt()
	}
	v, _ := math.NewIntFromString(string(bz))
	return v
}

func (b *mockBank) add(ctx sdk.Context, holder, denom string, amount math.Int) {
	ctx.KVStore(b.key).Set(b.balanceKey(holder, denom), []byte(b.balance(ctx, holder, denom).Add(amount).String()))
}

func (b *mockBank) sub(ctx sdk.Context, holder, denom string, amount math.Int) error {
	bal := b.balance(ctx, holder, denom)
	if bal.LT(amount) {
		return fmt.Errorf("insufficient funds: %s has %s%s, needs %s", holder, bal, denom, amount)
	}
	ctx.KVStore(b.key).Set(b.balanceKey(holder, denom), []byte(bal.Sub(amount).String()))
	return nil
}

func (b *mockBank) move(ctx sdk.Context, from, to string, amt sdk.Coins) error {
	for _, c := range amt {
		if err := b.sub(ctx, from, c.Denom, c.Amount); err != nil {
			return err
		}
		b.add(ctx, to, c.Denom, c.Amount)
	}
	return nil
}

func (b *mockBank) PullFromAccount(ctx sdk.Context, from sdk.AccAddress, amt sdk.Coins) error {
	return b.move(ctx, accountHolder(from), moduleHolder(types.ModuleName), amt)
}

func (b *mockBank) PushToAccount(ctx sdk.Context, to sdk.AccAddress, amt sdk.Coins) error {
	if b.blocked[to.String()] {
		return fmt.Errorf("%s is not allowed to receive funds", to)
	}
	return b.move(ctx, moduleHolder(types.ModuleName), accountHolder(to), amt)
}

func (b *mockBank) PushToModule(ctx sdk.Context, recipientModule string, amt sdk.Coins) error {
	return b.move(ctx, moduleHolder(types.ModuleName), moduleHolder(recipientModule), amt)
}

func (b *mockBank) WrapNative(ctx sdk.Context, nativeDenom, wrappedDenom string, amount math.Int) error {
	if err := b.sub(ctx, moduleHolder(types.ModuleName), nativeDenom, amount); err != nil {
		return err
	}
	b.add(ctx, moduleHolder(types.ModuleName), wrappedDenom, amount)
	return nil
}

func (b *mockBank) UnwrapNative(ctx sdk.Context, nativeDenom, wrappedDenom string, amount math.Int) error {
	if err := b.sub(ctx, moduleHolder(types.ModuleName), wrappedDenom, amount); err != nil {
		return err
	}
	b.add(ctx, moduleHolder(types.ModuleName), nativeDenom, amount)
	return nil
}

// mockLedger applies position changes against the mock bank at a fixed price
type mockLedger struct {
	bank            *mockBank
	price           math.LegacyDec
	swapRate        math.LegacyDec
	failIncrease    error
	failDecrease    error
	panicOnIncrease bool
}

func (l *mockLedger) ModuleName() string { return testLedgerModule }

func (l *mockLedger) Swap(ctx sdk.Context, tokenIn, tokenOut string, amountIn, minOut math.Int, receiverModule string) (math.Int, error) {
	if err := l.bank.sub(ctx, moduleHolder(testLedgerModule), tokenIn, amountIn); err != nil {
		return math.Int{}, err
	}
	out := l.swapRate.MulInt(amountIn).TruncateInt()
	if out.LT(minOut) {
		return math.Int{}, fmt.Errorf("slippage: out %s below min %s", out, minOut)
	}
	l.bank.add(ctx, moduleHolder(receiverModule), tokenOut, out)
	return out, nil
}

func (l *mockLedger) positionHolder(account, market string) string {
	return "pos:" + account + ":" + market
}

func (l *mockLedger) IncreasePosition(
	ctx sdk.Context,
	account, collateralDenom, marketID string,
	collateralDelta math.Int,
	sizeDelta math.LegacyDec,
	isLong bool,
	acceptablePrice math.LegacyDec,
) error {
	if l.panicOnIncrease {
		panic("ledger exploded")
	}
	if l.failIncrease != nil {
		return l.failIncrease
	}
	if isLong && l.price.GT(acceptablePrice) {
		return fmt.Errorf("price %s exceeds acceptable %s", l.price, acceptablePrice)
	}
	if !isLong && l.price.LT(acceptablePrice) {
		return fmt.Errorf("price %s below acceptable %s", l.price, acceptablePrice)
	}
	if collateralDelta.IsPositive() {
		if err := l.bank.sub(ctx, moduleHolder(testLedgerModule), collateralDenom, collateralDelta); err != nil {
			return err
		}
		l.bank.add(ctx, l.positionHolder(account, marketID), collateralDenom, collateralDelta)
	}
	return nil
}

func (l *mockLedger) DecreasePosition(
	ctx sdk.Context,
	account, collateralDenom, marketID string,
	collateralDelta math.Int,
	sizeDelta math.LegacyDec,
	isLong bool,
	acceptablePrice math.LegacyDec,
	receiverModule string,
) (math.Int, error) {
	if l.failDecrease != nil {
		return math.Int{}, l.failDecrease
	}
	if err := l.bank.sub(ctx, l.positionHolder(account, marketID), collateralDenom, collateralDelta); err != nil {
		return math.Int{}, err
	}
	l.bank.add(ctx, moduleHolder(receiverModule), collateralDenom, collateralDelta)
	return collateralDelta, nil
}

type testFixture struct {
	ctx       sdk.Context
	keeper    *Keeper
	bank      *mockBank
	ledger    *mockLedger
	msgServer *MsgServer
	authority string
}

// setupKeeper creates a keeper over an in-memory multistore at height 100, time 1000
func setupKeeper(tb testing.TB) *testFixture {
	tb.Helper()

	storeKey := storetypes.NewKVStoreKey(types.StoreKey)
	tstoreKey := storetypes.NewTransientStoreKey(types.TStoreKey)
	bankKey := storetypes.NewKVStoreKey("mockbank")

	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	stateStore.MountStoreWithDB(bankKey, storetypes.StoreTypeIAVL, db)
	stateStore.MountStoreWithDB(tstoreKey, storetypes.StoreTypeTransient, db)
	if err := stateStore.LoadLatestVersion(); err != nil {
		tb.Fatalf("failed to load store: %v", err)
	}

	ctx := sdk.NewContext(stateStore, cmtproto.Header{Height: 100, Time: time.Unix(1000, 0)}, false, log.NewNopLogger())

	interfaceRegistry := codectypes.NewInterfaceRegistry()
	cdc := codec.NewProtoCodec(interfaceRegistry)

	bank := &mockBank{
		key:     bankKey,
		blocked: map[string]bool{authtypes.NewModuleAddress(authtypes.FeeCollectorName).String(): true},
	}
	ledger := &mockLedger{
		bank:     bank,
		price:    math.LegacyNewDec(50000),
		swapRate: math.LegacyOneDec(),
	}
	authority := authtypes.NewModuleAddress("gov").String()

	k := NewKeeper(cdc, storeKey, tstoreKey, ledger, bank, authority, log.NewNopLogger())

	params := types.DefaultParams()
	params.MinExecutionFee = math.NewInt(5)
	if err := k.SetParams(ctx, params); err != nil {
		tb.Fatalf("failed to set params: %v", err)
	}

	for _, addr := range []sdk.AccAddress{alice, bob} {
		bank.add(ctx, accountHolder(addr), params.NativeDenom, math.NewInt(1_000_000))
		bank.add(ctx, accountHolder(addr), testCollateral, math.NewInt(1_000_000))
		bank.add(ctx, accountHolder(addr), testAltToken, math.NewInt(1_000_000))
	}

	return &testFixture{
		ctx:       ctx,
		keeper:    k,
		bank:      bank,
		ledger:    ledger,
		msgServer: NewMsgServerImpl(k),
		authority: authority,
	}
}

// at moves the fixture clock to an absolute height and unix time
func (f *testFixture) at(height, unix int64) {
	f.ctx = f.ctx.WithBlockHeight(height).WithBlockTime(time.Unix(unix, 0))
}

func (f *testFixture) params() types.Params {
	return f.keeper.GetParams(f.ctx)
}

func (f *testFixture) setParams(t *testing.T, mutate func(*types.Params)) {
	t.Helper()
	p := f.params()
	mutate(&p)
	if err := f.keeper.SetParams(f.ctx, p); err != nil {
		t.Fatalf("set params: %v", err)
	}
}

func (f *testFixture) nativeBalance(addr sdk.AccAddress) math.Int {
	return f.bank.balance(f.ctx, accountHolder(addr), f.params().NativeDenom)
}

func (f *testFixture) tokenBalance(addr sdk.AccAddress, denom string) math.Int {
	return f.bank.balance(f.ctx, accountHolder(addr), denom)
}

func (f *testFixture) positionCollateral(addr sdk.AccAddress, denom string) math.Int {
	return f.bank.balance(f.ctx, f.ledger.positionHolder(addr.String(), testMarket), denom)
}

func newIncrease(account sdk.AccAddress, amountIn int64, fee int64) *types.IncreasePositionRequest {
	return &types.IncreasePositionRequest{
		Account:         account.String(),
		Path:            []string{testCollateral},
		MarketID:        testMarket,
		AmountIn:        math.NewInt(amountIn),
		MinOut:          math.ZeroInt(),
		SizeDelta:       math.LegacyNewDec(1000),
		IsLong:          true,
		AcceptablePrice: math.LegacyNewDec(51000),
		ExecutionFee:    math.NewInt(fee),
	}
}

func newDecrease(account sdk.AccAddress, collateralDelta int64, fee int64) *types.DecreasePositionRequest {
	return &types.DecreasePositionRequest{
		Account:         account.String(),
		CollateralDenom: testCollateral,
		MarketID:        testMarket,
		CollateralDelta: math.NewInt(collateralDelta),
		SizeDelta:       math.LegacyNewDec(500),
		IsLong:          true,
		Receiver:        account.String(),
		AcceptablePrice: math.LegacyNewDec(49000),
		ExecutionFee:    math.NewInt(fee),
	}
}

// submitIncrease queues an increase request paid with the exact fee
func (f *testFixture) submitIncrease(t *testing.T, req *types.IncreasePositionRequest) []byte {
	t.Helper()
	_, key, err := f.keeper.SubmitIncreasePosition(f.ctx, req, req.ExecutionFee)
	if err != nil {
		t.Fatalf("submit increase: %v", err)
	}
	return key
}

// submitDecrease queues a decrease request paid with the exact fee
func (f *testFixture) submitDecrease(t *testing.T, req *types.DecreasePositionRequest) []byte {
	t.Helper()
	_, key, err := f.keeper.SubmitDecreasePosition(f.ctx, req, req.ExecutionFee)
	if err != nil {
		t.Fatalf("submit decrease: %v", err)
	}
	return key
}

func hasEvent(ctx sdk.Context, eventType string) bool {
	for _, ev := range ctx.EventManager().Events() {
		if ev.Type == eventType {
			return true
		}
	}
	return false
}

func eventAttribute(ctx sdk.Context, eventType, key string) (string, bool) {
	events := ctx.EventManager().Events()
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type != eventType {
			continue
		}
		for _, attr := range events[i].Attributes {
			if attr.Key == key {
				return attr.Value, true
			}
		}
	}
	return "", false
}
