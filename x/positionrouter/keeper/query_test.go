package keeper

import (
	"errors"
	"testing"

	"github.com/openalpha/perp-router/x/positionrouter/types"
)

func TestQueryRequests(t *testing.T) {
	f := setupKeeper(t)
	q := NewQueryServerImpl(f.keeper)

	incKey := f.submitIncrease(t, newIncrease(alice, 1000, 5))
	f.openPosition(alice.String(), testCollateral, 1000)
	decKey := f.submitDecrease(t, newDecrease(alice, 100, 5))

	keyHex, err := q.RequestKey(f.ctx, alice.String(), 1)
	if err != nil {
		t.Fatalf("request key: %v", err)
	}
	if keyHex != types.FormatRequestKey(incKey) {
		t.Errorf("expected key %x, got %s", incKey, keyHex)
	}

	inc, err := q.IncreaseRequest(f.ctx, keyHex)
	if err != nil {
		t.Fatalf("increase request: %v", err)
	}
	if inc.Account != alice.String() || inc.Index != 1 {
		t.Errorf("unexpected increase request %+v", inc)
	}

	if _, err := q.DecreaseRequest(f.ctx, types.FormatRequestKey(decKey)); err != nil {
		t.Fatalf("decrease request: %v", err)
	}
	if _, err := q.DecreaseRequest(f.ctx, "00"); !errors.Is(err, types.ErrRequestNotFound) {
		t.Errorf("expected ErrRequestNotFound for malformed key, got %v", err)
	}

	lengths, err := q.QueueLengths(f.ctx)
	if err != nil {
		t.Fatalf("queue lengths: %v", err)
	}
	if lengths.IncreaseLength != 1 || lengths.DecreaseLength != 1 {
		t.Errorf("unexpected lengths %+v", lengths)
	}

	byAccount, err := q.RequestsByAccount(f.ctx, alice.String())
	if err != nil {
		t.Fatalf("requests by account: %v", err)
	}
	if byAccount.IncreaseIndex != 1 || byAccount.DecreaseIndex != 1 {
		t.Errorf("unexpected indexes %d/%d", byAccount.IncreaseIndex, byAccount.DecreaseIndex)
	}
	if len(byAccount.IncreaseRequests) != 1 || len(byAccount.DecreaseRequests) != 1 {
		t.Errorf("expected one request per queue, got %d/%d",
			len(byAccount.IncreaseRequests), len(byAccount.DecreaseRequests))
	}

	if _, err := q.RequestsByAccount(f.ctx, "not-an-address"); !errors.Is(err, types.ErrInvalidAddress) {
		t.Errorf("expected ErrInvalidAddress, got %v", err)
	}
}

func TestQueryParamsAndKeepers(t *testing.T) {
	f := setupKeeper(t)
	q := NewQueryServerImpl(f.keeper)

	params, err := q.Params(f.ctx)
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if !params.MinExecutionFee.Equal(f.params().MinExecutionFee) {
		t.Errorf("unexpected min execution fee %s", params.MinExecutionFee)
	}

	f.addKeeper(t, bob.String())
	keepers, err := q.PositionKeepers(f.ctx)
	if err != nil {
		t.Fatalf("keepers: %v", err)
	}
	if len(keepers) != 1 || keepers[0] != bob.String() {
		t.Errorf("unexpected keepers %v", keepers)
	}

	reserves, err := q.FeeReserves(f.ctx)
	if err != nil {
		t.Fatalf("fee reserves: %v", err)
	}
	if !reserves.IsZero() {
		t.Errorf("expected no reserves, got %s", reserves)
	}
}
