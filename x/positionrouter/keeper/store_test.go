package keeper

import (
	"bytes"
	"errors"
	"testing"

	"github.com/openalpha/perp-router/x/positionrouter/types"
)

// TestCreateIncreaseRequestSequence tests per-account indexes grow by exactly one
func TestCreateIncreaseRequestSequence(t *testing.T) {
	f := setupKeeper(t)

	for i := uint64(1); i <= 3; i++ {
		index, key, err := f.keeper.CreateIncreaseRequest(f.ctx, newIncrease(alice, 100, 5))
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if index != i {
			t.Errorf("expected index %d, got %d", i, index)
		}
		if !bytes.Equal(key, types.RequestKey(alice, i)) {
			t.Errorf("key for index %d does not match RequestKey", i)
		}
	}

	// counters are per account and per kind
	index, _, err := f.keeper.CreateIncreaseRequest(f.ctx, newIncrease(bob, 100, 5))
	if err != nil {
		t.Fatalf("create bob: %v", err)
	}
	if index != 1 {
		t.Errorf("expected bob's first index 1, got %d", index)
	}
	index, _, err = f.keeper.CreateDecreaseRequest(f.ctx, newDecrease(alice, 10, 5))
	if err != nil {
		t.Fatalf("create decrease: %v", err)
	}
	if index != 1 {
		t.Errorf("expected alice's first decrease index 1, got %d", index)
	}

	if got := f.keeper.GetRequestIndex(f.ctx, types.QueueIncrease, alice); got != 3 {
		t.Errorf("expected increase counter 3, got %d", got)
	}
}

// TestCreateIncreaseRequestRecordsClock tests creation height and time are stamped
func TestCreateIncreaseRequestRecordsClock(t *testing.T) {
	f := setupKeeper(t)
	f.at(250, 4242)

	_, key, err := f.keeper.CreateIncreaseRequest(f.ctx, newIncrease(alice, 100, 5))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	req, found := f.keeper.GetIncreaseRequest(f.ctx, key)
	if !found {
		t.Fatal("expected request to be stored")
	}
	if req.BlockHeight != 250 || req.BlockTime != 4242 {
		t.Errorf("expected clock (250, 4242), got (%d, %d)", req.BlockHeight, req.BlockTime)
	}
	if req.Index != 1 {
		t.Errorf("expected index 1, got %d", req.Index)
	}
	if !hasEvent(f.ctx, types.EventTypeCreateIncreasePosition) {
		t.Error("expected create event")
	}
	if v, _ := eventAttribute(f.ctx, types.EventTypeCreateIncreasePosition, types.AttributeKeyIndex); v != "1" {
		t.Errorf("expected index attribute 1, got %q", v)
	}
}

// TestCreateIncreaseRequestInvalidPath tests path length validation
func TestCreateIncreaseRequestInvalidPath(t *testing.T) {
	tests := []struct {
		name string
		path []string
	}{
		{"empty", nil},
		{"three hops", []string{"uatom", "uusdc", "ubtc"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := setupKeeper(t)
			req := newIncrease(alice, 100, 5)
			req.Path = tc.path

			_, _, err := f.keeper.CreateIncreaseRequest(f.ctx, req)
			if !errors.Is(err, types.ErrInvalidPath) {
				t.Fatalf("expected ErrInvalidPath, got %v", err)
			}
			if f.keeper.GetRequestIndex(f.ctx, types.QueueIncrease, alice) != 0 {
				t.Error("counter must not move on a rejected create")
			}
			if f.keeper.GetQueueState(f.ctx, types.QueueIncrease).Length != 0 {
				t.Error("queue must not grow on a rejected create")
			}
		})
	}
}

// TestRemoveRequest tests removal and the absent-key no-op
func TestRemoveRequest(t *testing.T) {
	f := setupKeeper(t)

	_, key, err := f.keeper.CreateDecreaseRequest(f.ctx, newDecrease(alice, 10, 5))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	f.keeper.RemoveDecreaseRequest(f.ctx, key)
	if _, found := f.keeper.GetDecreaseRequest(f.ctx, key); found {
		t.Error("expected request to be removed")
	}

	// second removal is a no-op
	f.keeper.RemoveDecreaseRequest(f.ctx, key)

	// a key removed from the store is never handed out again
	_, next, err := f.keeper.CreateDecreaseRequest(f.ctx, newDecrease(alice, 10, 5))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if bytes.Equal(key, next) {
		t.Error("expected a fresh key for the next request")
	}
}

// TestAccountRequestListing tests per-account listing skips resolved requests
func TestAccountRequestListing(t *testing.T) {
	f := setupKeeper(t)

	var keys [][]byte
	for i := 0; i < 3; i++ {
		_, key, err := f.keeper.CreateIncreaseRequest(f.ctx, newIncrease(alice, int64(100+i), 5))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		keys = append(keys, key)
	}
	f.keeper.RemoveIncreaseRequest(f.ctx, keys[1])

	reqs := f.keeper.GetAccountIncreaseRequests(f.ctx, alice)
	if len(reqs) != 2 {
		t.Fatalf("expected 2 pending requests, got %d", len(reqs))
	}
	if reqs[0].Index != 1 || reqs[1].Index != 3 {
		t.Errorf("expected indexes 1 and 3, got %d and %d", reqs[0].Index, reqs[1].Index)
	}
	if len(f.keeper.GetAccountIncreaseRequests(f.ctx, bob)) != 0 {
		t.Error("expected no requests for bob")
	}
}
