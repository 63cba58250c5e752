package app

import (
	"encoding/json"
	"testing"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	abci "github.com/cometbft/cometbft/abci/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"

	routertypes "github.com/openalpha/perp-router/x/positionrouter/types"
)

func setupApp(t *testing.T) (*App, sdk.Context) {
	t.Helper()
	SetAddressPrefixes()

	app := NewApp(log.NewNopLogger(), dbm.NewMemDB(), nil, true, nil)
	ctx := app.NewUncachedContext(false, cmtproto.Header{Height: 1, Time: time.Unix(1000, 0)})

	appState, err := json.Marshal(ModuleBasics.DefaultGenesis(app.AppCodec()))
	if err != nil {
		t.Fatalf("marshal genesis: %v", err)
	}
	if _, err := app.InitChainer(ctx, &abci.RequestInitChain{AppStateBytes: appState}); err != nil {
		t.Fatalf("init chain: %v", err)
	}
	return app, ctx
}

// TestEndBlockerPaysFeeCollector runs the auto-drive against the real bank
// keeper, where the fee collector is closed to plain sends
func TestEndBlockerPaysFeeCollector(t *testing.T) {
	app, ctx := setupApp(t)
	router := app.PositionRouterKeeper

	params := router.GetParams(ctx)
	params.EndBlockBatchSize = 5
	if err := router.SetParams(ctx, params); err != nil {
		t.Fatalf("set params: %v", err)
	}

	trader := sdk.AccAddress([]byte("trader______________"))
	funds := sdk.NewCoins(
		sdk.NewInt64Coin(params.NativeDenom, 1_000_000),
		sdk.NewInt64Coin("uusdc", 1_000_000),
	)
	if err := app.BankKeeper.MintCoins(ctx, routertypes.ModuleName, funds); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := app.BankKeeper.SendCoinsFromModuleToAccount(ctx, routertypes.ModuleName, trader, funds); err != nil {
		t.Fatalf("fund trader: %v", err)
	}

	fee := math.NewInt(2000)
	req := &routertypes.IncreasePositionRequest{
		Account:         trader.String(),
		Path:            []string{"uusdc"},
		MarketID:        "BTC-USDC",
		AmountIn:        math.NewInt(10_000),
		MinOut:          math.ZeroInt(),
		SizeDelta:       math.LegacyNewDec(10_000),
		IsLong:          true,
		AcceptablePrice: math.LegacyNewDec(51_000),
		ExecutionFee:    fee,
	}
	if _, _, err := router.SubmitIncreasePosition(ctx, req, fee); err != nil {
		t.Fatalf("submit increase: %v", err)
	}

	ctx = ctx.WithBlockHeight(1 + params.MinBlockDelayKeeper).WithBlockTime(time.Unix(1006, 0))
	if _, err := app.EndBlocker(ctx); err != nil {
		t.Fatalf("end block: %v", err)
	}

	if st := router.GetQueueState(ctx, routertypes.QueueIncrease); st.Start != 1 {
		t.Fatalf("expected increase cursor 1, got %d", st.Start)
	}
	if got := router.GetAccountIncreaseRequests(ctx, trader); len(got) != 0 {
		t.Errorf("expected request resolved, %d left", len(got))
	}

	collector := authtypes.NewModuleAddress(authtypes.FeeCollectorName)
	if got := app.BankKeeper.GetBalance(ctx, collector, params.NativeDenom); !got.Amount.Equal(fee) {
		t.Errorf("expected fee collector balance %s, got %s", fee, got.Amount)
	}
}

func TestFeeCollectorBlockedForPlainSends(t *testing.T) {
	blocked := BlockedModuleAccountAddrs(moduleAccountPerms)

	tests := []struct {
		module string
		want   bool
	}{
		{authtypes.FeeCollectorName, true},
		{routertypes.ModuleName, false},
	}
	for _, tt := range tests {
		if got := blocked[authtypes.NewModuleAddress(tt.module).String()]; got != tt.want {
			t.Errorf("%s: expected blocked=%v, got %v", tt.module, tt.want, got)
		}
	}
}
