package keeper

import (
	"errors"
	"fmt"
	"testing"

	"cosmossdk.io/math"

	"github.com/openalpha/perp-router/x/positionrouter/types"
)

// openPosition funds a position for account in denom directly on the mock ledger
func (f *testFixture) openPosition(account string, denom string, amount int64) {
	f.bank.add(f.ctx, f.ledger.positionHolder(account, testMarket), denom, math.NewInt(amount))
}

// TestSubmitDecreasePositionValidation tests fee, payment and native withdrawal checks
func TestSubmitDecreasePositionValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(req *types.DecreasePositionRequest)
		payment int64
		wantErr error
	}{
		{"fee below minimum", func(r *types.DecreasePositionRequest) { r.ExecutionFee = math.NewInt(1) }, 1, types.ErrInvalidExecutionFee},
		{"payment mismatch", nil, 7, types.ErrInvalidPayment},
		{"native withdrawal of token", func(r *types.DecreasePositionRequest) { r.WithdrawNative = true }, 5, types.ErrInvalidDenom},
		{"bad receiver", func(r *types.DecreasePositionRequest) { r.Receiver = "nope" }, 5, types.ErrInvalidAddress},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := setupKeeper(t)
			req := newDecrease(alice, 100, 5)
			if tc.mutate != nil {
				tc.mutate(req)
			}
			_, _, err := f.keeper.SubmitDecreasePosition(f.ctx, req, math.NewInt(tc.payment))
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

// TestExecuteDecreasePosition tests the payout goes to the receiver
func TestExecuteDecreasePosition(t *testing.T) {
	f := setupKeeper(t)
	f.openPosition(alice.String(), testCollateral, 5000)

	req := newDecrease(alice, 3000, 5)
	req.Receiver = bob.String()
	key := f.submitDecrease(t, req)

	f.at(102, 1012)
	executed, err := f.keeper.ExecuteDecreasePosition(f.ctx, key, feeBot, types.CallerKeeper)
	if err != nil || !executed {
		t.Fatalf("expected execution, got %t, %v", executed, err)
	}

	if got := f.tokenBalance(bob, testCollateral); !got.Equal(math.NewInt(1_003_000)) {
		t.Errorf("expected bob to receive 3000, holds %s", got)
	}
	if got := f.positionCollateral(alice, testCollateral); !got.Equal(math.NewInt(2000)) {
		t.Errorf("expected 2000 collateral left, got %s", got)
	}
	if got := f.nativeBalance(feeBot); !got.Equal(math.NewInt(5)) {
		t.Errorf("expected fee 5, got %s", got)
	}
	if v, _ := eventAttribute(f.ctx, types.EventTypeExecuteDecreasePosition, types.AttributeKeyPayout); v != "3000" {
		t.Errorf("expected payout attribute 3000, got %q", v)
	}
}

// TestExecuteDecreaseWithdrawNative tests native payouts are unwrapped
func TestExecuteDecreaseWithdrawNative(t *testing.T) {
	f := setupKeeper(t)
	f.openPosition(alice.String(), types.DefaultWrappedNativeDenom, 800)

	req := newDecrease(alice, 800, 5)
	req.CollateralDenom = types.DefaultWrappedNativeDenom
	req.WithdrawNative = true
	key := f.submitDecrease(t, req)

	f.at(102, 1012)
	if _, err := f.keeper.ExecuteDecreasePosition(f.ctx, key, feeBot, types.CallerKeeper); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got := f.nativeBalance(alice); !got.Equal(math.NewInt(1_000_000 - 5 + 800)) {
		t.Errorf("expected alice native %d, got %s", 1_000_000-5+800, got)
	}
	if got := f.tokenBalance(alice, types.DefaultWrappedNativeDenom); !got.IsZero() {
		t.Errorf("expected no wrapped payout, got %s", got)
	}
}

// TestExecuteDecreaseLedgerRejection tests ledger errors are wrapped
func TestExecuteDecreaseLedgerRejection(t *testing.T) {
	f := setupKeeper(t)
	f.ledger.failDecrease = fmt.Errorf("price below acceptable")
	key := f.submitDecrease(t, newDecrease(alice, 100, 5))

	f.at(102, 1012)
	_, err := f.keeper.ExecuteDecreasePosition(f.ctx, key, feeBot, types.CallerKeeper)
	if !errors.Is(err, types.ErrLedgerRejection) {
		t.Fatalf("expected ErrLedgerRejection, got %v", err)
	}
}

// TestCancelDecreasePosition tests cancellation only pays the fee
func TestCancelDecreasePosition(t *testing.T) {
	f := setupKeeper(t)
	key := f.submitDecrease(t, newDecrease(alice, 100, 5))

	f.at(100, 1100)
	err := f.keeper.CancelDecreasePosition(f.ctx, key, feeBot, alice, types.CallerPublic)
	if !errors.Is(err, types.ErrCancelNotReady) {
		t.Fatalf("expected ErrCancelNotReady, got %v", err)
	}

	f.at(102, 1100)
	if err := f.keeper.CancelDecreasePosition(f.ctx, key, feeBot, keeper1, types.CallerKeeper); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, found := f.keeper.GetDecreaseRequest(f.ctx, key); found {
		t.Error("cancelled request must be removed")
	}
	if got := f.nativeBalance(feeBot); !got.Equal(math.NewInt(5)) {
		t.Errorf("expected fee 5, got %s", got)
	}
	if v, _ := eventAttribute(f.ctx, types.EventTypeCancelDecreasePosition, types.AttributeKeyBlockGap); v != "2" {
		t.Errorf("expected block gap 2, got %q", v)
	}

	err = f.keeper.CancelDecreasePosition(f.ctx, key, feeBot, keeper1, types.CallerKeeper)
	if !errors.Is(err, types.ErrRequestNotFound) {
		t.Errorf("expected ErrRequestNotFound, got %v", err)
	}
}
