package keeper

import (
	"testing"

	"github.com/openalpha/perp-router/x/positionrouter/types"
)

// TestGenesisRoundTrip tests exported state imports into a fresh keeper unchanged
func TestGenesisRoundTrip(t *testing.T) {
	f := setupKeeper(t)
	f.addKeeper(t, keeper1.String())
	f.submitIncrease(t, newIncrease(alice, 10_000, 5))
	f.submitIncrease(t, newIncrease(bob, 1000, 5))
	f.submitDecrease(t, newDecrease(alice, 100, 5))

	f.at(102, 1012)
	if _, err := f.keeper.ExecuteIncreasePositions(f.ctx, 1, feeBot, types.CallerSelf); err != nil {
		t.Fatalf("drive: %v", err)
	}

	exported, err := f.keeper.ExportGenesis(f.ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if err := exported.Validate(); err != nil {
		t.Fatalf("exported genesis invalid: %v", err)
	}
	if len(exported.IncreaseRequests) != 1 || len(exported.DecreaseRequests) != 1 {
		t.Errorf("expected 1 increase and 1 decrease pending, got %d and %d",
			len(exported.IncreaseRequests), len(exported.DecreaseRequests))
	}
	if len(exported.IncreaseEntries) != 1 || exported.IncreaseEntries[0].Position != 1 {
		t.Errorf("expected one increase entry at position 1, got %+v", exported.IncreaseEntries)
	}
	if exported.FeeReserves.AmountOf(testCollateral).Int64() != 30 {
		t.Errorf("expected 30 fee reserve, got %s", exported.FeeReserves)
	}

	g := setupKeeper(t)
	if err := g.keeper.InitGenesis(g.ctx, *exported); err != nil {
		t.Fatalf("init: %v", err)
	}

	if got := g.keeper.GetQueueLengths(g.ctx); got != f.keeper.GetQueueLengths(f.ctx) {
		t.Errorf("queue lengths differ: %s vs %s", got, f.keeper.GetQueueLengths(f.ctx))
	}
	if !g.keeper.IsPositionKeeper(g.ctx, keeper1) {
		t.Error("expected keeper allow-list to survive")
	}
	if len(g.keeper.GetAccountIncreaseRequests(g.ctx, bob)) != 1 {
		t.Error("expected bob's request to be imported under its derived key")
	}

	// counters continue from the imported values
	index, _, err := g.keeper.CreateIncreaseRequest(g.ctx, newIncrease(alice, 1, 5))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if index != 2 {
		t.Errorf("expected alice's next index 2, got %d", index)
	}
}
