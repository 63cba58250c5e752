package keeper

import (
	"errors"
	"testing"

	"cosmossdk.io/math"

	"github.com/openalpha/perp-router/x/positionrouter/types"
)

// TestSubmitIncreasePositionValidation tests fee and payment checks on create
func TestSubmitIncreasePositionValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(req *types.IncreasePositionRequest)
		payment int64
		wantErr error
	}{
		{"fee below minimum", func(r *types.IncreasePositionRequest) { r.ExecutionFee = math.NewInt(4) }, 4, types.ErrInvalidExecutionFee},
		{"payment above fee", nil, 6, types.ErrInvalidPayment},
		{"payment below fee", nil, 4, types.ErrInvalidPayment},
		{"bad path", func(r *types.IncreasePositionRequest) { r.Path = []string{"a", "b", "c"} }, 5, types.ErrInvalidPath},
		{"native wrong path", func(r *types.IncreasePositionRequest) { r.HasCollateralInNative = true }, 100, types.ErrInvalidPath},
		{"native payment below fee", func(r *types.IncreasePositionRequest) {
			r.HasCollateralInNative = true
			r.Path = []string{types.DefaultWrappedNativeDenom}
		}, 4, types.ErrInvalidPayment},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := setupKeeper(t)
			req := newIncrease(alice, 1000, 5)
			if tc.mutate != nil {
				tc.mutate(req)
			}
			before := f.nativeBalance(alice)

			_, _, err := f.keeper.SubmitIncreasePosition(f.ctx, req, math.NewInt(tc.payment))
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if !f.nativeBalance(alice).Equal(before) {
				t.Error("no funds may move on a rejected create")
			}
			if f.keeper.GetQueueState(f.ctx, types.QueueIncrease).Length != 0 {
				t.Error("queue must not grow on a rejected create")
			}
		})
	}
}

// TestSubmitIncreasePositionCustody tests funds move to the router on create
func TestSubmitIncreasePositionCustody(t *testing.T) {
	f := setupKeeper(t)

	f.submitIncrease(t, newIncrease(alice, 1000, 5))

	if got := f.tokenBalance(alice, testCollateral); !got.Equal(math.NewInt(999_000)) {
		t.Errorf("expected alice collateral 999000, got %s", got)
	}
	if got := f.nativeBalance(alice); !got.Equal(math.NewInt(999_995)) {
		t.Errorf("expected alice native 999995, got %s", got)
	}
	router := moduleHolder(types.ModuleName)
	if got := f.bank.balance(f.ctx, router, types.DefaultWrappedNativeDenom); !got.Equal(math.NewInt(5)) {
		t.Errorf("expected router to hold 5 wrapped fee, got %s", got)
	}
}

// TestSubmitIncreasePositionNative tests the native variant derives amount in from the payment
func TestSubmitIncreasePositionNative(t *testing.T) {
	f := setupKeeper(t)
	req := newIncrease(alice, 0, 5)
	req.Path = []string{types.DefaultWrappedNativeDenom}
	req.HasCollateralInNative = true

	_, key, err := f.keeper.SubmitIncreasePosition(f.ctx, req, math.NewInt(1005))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	stored, _ := f.keeper.GetIncreaseRequest(f.ctx, key)
	if !stored.AmountIn.Equal(math.NewInt(1000)) {
		t.Errorf("expected amount in 1000, got %s", stored.AmountIn)
	}
	if got := f.nativeBalance(alice); !got.Equal(math.NewInt(1_000_000 - 1005)) {
		t.Errorf("expected alice native %d, got %s", 1_000_000-1005, got)
	}
}

// TestExecuteIncreaseNotReady tests a not-yet-eligible request is left untouched
func TestExecuteIncreaseNotReady(t *testing.T) {
	f := setupKeeper(t)
	key := f.submitIncrease(t, newIncrease(alice, 1000, 5))

	// one block short of the keeper delay
	f.at(101, 1006)
	executed, err := f.keeper.ExecuteIncreasePosition(f.ctx, key, feeBot, types.CallerKeeper)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if executed {
		t.Fatal("expected not-ready result")
	}
	if _, found := f.keeper.GetIncreaseRequest(f.ctx, key); !found {
		t.Error("request must stay queued")
	}
	if !f.nativeBalance(feeBot).IsZero() {
		t.Error("no fee may be paid on a not-ready result")
	}

	// exactly at the keeper delay
	f.at(102, 1012)
	executed, err = f.keeper.ExecuteIncreasePosition(f.ctx, key, feeBot, types.CallerKeeper)
	if err != nil || !executed {
		t.Fatalf("expected execution at the boundary, got %t, %v", executed, err)
	}
}

// TestExecuteIncreaseScenario tests execution at height 100+delay with fee 5
func TestExecuteIncreaseScenario(t *testing.T) {
	f := setupKeeper(t)
	key := f.submitIncrease(t, newIncrease(alice, 10_000, 5))

	f.at(102, 1012)
	executed, err := f.keeper.ExecuteIncreasePosition(f.ctx, key, feeBot, types.CallerKeeper)
	if err != nil || !executed {
		t.Fatalf("expected execution, got %t, %v", executed, err)
	}

	if _, found := f.keeper.GetIncreaseRequest(f.ctx, key); found {
		t.Error("executed request must be removed")
	}
	if got := f.nativeBalance(feeBot); !got.Equal(math.NewInt(5)) {
		t.Errorf("expected fee 5 paid to receiver, got %s", got)
	}

	// 30 bps deposit fee on 10000
	reserve := f.keeper.GetFeeReserve(f.ctx, testCollateral)
	if !reserve.Equal(math.NewInt(30)) {
		t.Errorf("expected deposit fee 30, got %s", reserve)
	}
	collateral := f.positionCollateral(alice, testCollateral)
	if !collateral.Equal(math.NewInt(9_970)) {
		t.Errorf("expected position collateral 9970, got %s", collateral)
	}
	if !collateral.Add(reserve).Equal(math.NewInt(10_000)) {
		t.Error("amount in must be fully accounted for")
	}

	if v, _ := eventAttribute(f.ctx, types.EventTypeExecuteIncreasePosition, types.AttributeKeyBlockGap); v != "2" {
		t.Errorf("expected block gap 2, got %q", v)
	}
	if v, _ := eventAttribute(f.ctx, types.EventTypeExecuteIncreasePosition, types.AttributeKeyTimeGap); v != "12" {
		t.Errorf("expected time gap 12, got %q", v)
	}

	// a second attempt finds nothing
	_, err = f.keeper.ExecuteIncreasePosition(f.ctx, key, feeBot, types.CallerKeeper)
	if !errors.Is(err, types.ErrRequestNotFound) {
		t.Errorf("expected ErrRequestNotFound, got %v", err)
	}
}

// TestExecuteIncreaseWithSwap tests a two-hop path swaps before increasing
func TestExecuteIncreaseWithSwap(t *testing.T) {
	f := setupKeeper(t)
	f.ledger.swapRate = math.LegacyNewDec(2)
	f.setParams(t, func(p *types.Params) { p.DepositFeeBps = 0 })

	req := newIncrease(alice, 1000, 5)
	req.Path = []string{testAltToken, testCollateral}
	req.MinOut = math.NewInt(1500)
	key := f.submitIncrease(t, req)

	f.at(102, 1012)
	executed, err := f.keeper.ExecuteIncreasePosition(f.ctx, key, feeBot, types.CallerKeeper)
	if err != nil || !executed {
		t.Fatalf("expected execution, got %t, %v", executed, err)
	}
	if got := f.positionCollateral(alice, testCollateral); !got.Equal(math.NewInt(2000)) {
		t.Errorf("expected swapped collateral 2000, got %s", got)
	}
}

// TestExecuteIncreaseSlippage tests a swap below min out is a ledger rejection
func TestExecuteIncreaseSlippage(t *testing.T) {
	f := setupKeeper(t)
	req := newIncrease(alice, 1000, 5)
	req.Path = []string{testAltToken, testCollateral}
	req.MinOut = math.NewInt(1001)
	key := f.submitIncrease(t, req)

	f.at(102, 1012)
	_, err := f.keeper.ExecuteIncreasePosition(f.ctx, key, feeBot, types.CallerKeeper)
	if !errors.Is(err, types.ErrLedgerRejection) {
		t.Fatalf("expected ErrLedgerRejection, got %v", err)
	}
}

// TestExecuteIncreaseAdmission tests expiry, public delay and the leverage switch
func TestExecuteIncreaseAdmission(t *testing.T) {
	tests := []struct {
		name         string
		height, unix int64
		role         types.CallerRole
		leverage     bool
		wantExecuted bool
		wantErr      error
	}{
		{"public before delay", 200, 1179, types.CallerPublic, true, false, nil},
		{"public at delay", 101, 1180, types.CallerPublic, true, true, nil},
		{"keeper at max delay", 102, 2800, types.CallerKeeper, true, true, nil},
		{"keeper expired", 102, 2801, types.CallerKeeper, true, false, types.ErrRequestExpired},
		{"public expired", 102, 2801, types.CallerPublic, true, false, types.ErrRequestExpired},
		{"leverage off keeper", 102, 1012, types.CallerKeeper, false, false, types.ErrLeverageDisabled},
		{"leverage off self", 102, 1012, types.CallerSelf, false, true, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := setupKeeper(t)
			f.setParams(t, func(p *types.Params) { p.IsLeverageEnabled = tc.leverage })
			key := f.submitIncrease(t, newIncrease(alice, 1000, 5))

			f.at(tc.height, tc.unix)
			executed, err := f.keeper.ExecuteIncreasePosition(f.ctx, key, feeBot, tc.role)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if executed != tc.wantExecuted {
				t.Errorf("expected executed=%t, got %t", tc.wantExecuted, executed)
			}
		})
	}
}

// TestCancelIncreasePosition tests owner and keeper cancellation rules
func TestCancelIncreasePosition(t *testing.T) {
	tests := []struct {
		name         string
		height, unix int64
		caller       string
		role         types.CallerRole
		wantErr      error
	}{
		{"owner before delay", 200, 1179, "alice", types.CallerPublic, types.ErrCancelNotReady},
		{"owner after delay", 100, 1180, "alice", types.CallerPublic, nil},
		{"stranger", 200, 5000, "bob", types.CallerPublic, types.ErrForbidden},
		{"keeper before delay", 101, 5000, "keeper", types.CallerKeeper, types.ErrCancelNotReady},
		{"keeper at delay", 102, 1012, "keeper", types.CallerKeeper, nil},
		{"owner long expired", 100, 90000, "alice", types.CallerPublic, nil},
	}

	callers := map[string][]byte{"alice": alice, "bob": bob, "keeper": keeper1}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := setupKeeper(t)
			key := f.submitIncrease(t, newIncrease(alice, 1000, 5))

			f.at(tc.height, tc.unix)
			err := f.keeper.CancelIncreasePosition(f.ctx, key, feeBot, callers[tc.caller], tc.role)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				if _, found := f.keeper.GetIncreaseRequest(f.ctx, key); !found {
					t.Error("request must survive a rejected cancel")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got := f.tokenBalance(alice, testCollateral); !got.Equal(math.NewInt(1_000_000)) {
				t.Errorf("expected full refund, alice holds %s", got)
			}
			if got := f.nativeBalance(feeBot); !got.Equal(math.NewInt(5)) {
				t.Errorf("expected fee 5 paid once, got %s", got)
			}
			if !hasEvent(f.ctx, types.EventTypeCancelIncreasePosition) {
				t.Error("expected cancel event")
			}
		})
	}
}

// TestCancelIncreaseNativeRefund tests native input is refunded unwrapped
func TestCancelIncreaseNativeRefund(t *testing.T) {
	f := setupKeeper(t)
	req := newIncrease(alice, 0, 5)
	req.Path = []string{types.DefaultWrappedNativeDenom}
	req.HasCollateralInNative = true
	_, key, err := f.keeper.SubmitIncreasePosition(f.ctx, req, math.NewInt(1005))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	f.at(100, 1180)
	if err := f.keeper.CancelIncreasePosition(f.ctx, key, alice, alice, types.CallerPublic); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	// refund plus the fee paid back to alice as receiver
	if got := f.nativeBalance(alice); !got.Equal(math.NewInt(1_000_000)) {
		t.Errorf("expected alice native restored to 1000000, got %s", got)
	}
	if got := f.tokenBalance(alice, types.DefaultWrappedNativeDenom); !got.IsZero() {
		t.Errorf("expected no wrapped refund, got %s", got)
	}
}
