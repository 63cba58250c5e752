package keeper

import (
	"testing"

	"cosmossdk.io/math"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"

	"github.com/openalpha/perp-router/x/positionrouter/types"
)

// TestEndBlockerDisabled tests the auto-drive is off by default
func TestEndBlockerDisabled(t *testing.T) {
	f := setupKeeper(t)
	f.submitIncrease(t, newIncrease(alice, 1000, 5))
	f.at(102, 1012)

	results, err := f.keeper.EndBlocker(f.ctx)
	if err != nil {
		t.Fatalf("end block: %v", err)
	}
	if results != nil {
		t.Errorf("expected no drives, got %d", len(results))
	}
	if f.keeper.GetQueueState(f.ctx, types.QueueIncrease).Start != 0 {
		t.Error("queue must not move")
	}
}

// TestEndBlockerDrivesQueues tests the auto-drive pays the fee collector
func TestEndBlockerDrivesQueues(t *testing.T) {
	f := setupKeeper(t)
	f.setParams(t, func(p *types.Params) {
		p.EndBlockBatchSize = 5
		p.IsLeverageEnabled = false
	})
	f.submitIncrease(t, newIncrease(alice, 1000, 5))
	f.submitIncrease(t, newIncrease(bob, 1000, 5))

	f.at(102, 1012)
	results, err := f.keeper.EndBlocker(f.ctx)
	if err != nil {
		t.Fatalf("end block: %v", err)
	}
	if len(results) != 1 || results[0].Executed != 2 {
		t.Fatalf("expected one increase drive executing 2, got %+v", results)
	}

	if got := f.bank.balance(f.ctx, moduleHolder(authtypes.FeeCollectorName), f.params().NativeDenom); !got.Equal(math.NewInt(10)) {
		t.Errorf("expected fee collector to receive 10, got %s", got)
	}
	if st := f.keeper.GetQueueState(f.ctx, types.QueueIncrease); st.Start != 2 {
		t.Errorf("expected cursor 2, got %d", st.Start)
	}
	if !hasEvent(f.ctx, types.EventTypeEndBlock) {
		t.Error("expected end block summary event")
	}
}

// TestEndBlockerCancelPaysFeeCollector tests an expired request is cancelled
// with the fee routed to the fee collector module
func TestEndBlockerCancelPaysFeeCollector(t *testing.T) {
	f := setupKeeper(t)
	f.setParams(t, func(p *types.Params) { p.EndBlockBatchSize = 5 })
	f.submitIncrease(t, newIncrease(alice, 1000, 5))

	f.at(200, 1000+f.params().MaxTimeDelay+1)
	results, err := f.keeper.EndBlocker(f.ctx)
	if err != nil {
		t.Fatalf("end block: %v", err)
	}
	if len(results) != 1 || results[0].Cancelled != 1 {
		t.Fatalf("expected one cancellation, got %+v", results)
	}
	if got := f.bank.balance(f.ctx, moduleHolder(authtypes.FeeCollectorName), f.params().NativeDenom); !got.Equal(math.NewInt(5)) {
		t.Errorf("expected fee collector to receive 5, got %s", got)
	}
	if got := f.tokenBalance(alice, testCollateral); !got.Equal(math.NewInt(1_000_000)) {
		t.Errorf("expected alice refunded to 1000000, got %s", got)
	}
}
