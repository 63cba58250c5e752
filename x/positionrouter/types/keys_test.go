package types

import (
	"bytes"
	"fmt"
	"testing"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// TestRequestKeyDeterministic tests key derivation is pure
func TestRequestKeyDeterministic(t *testing.T) {
	account := sdk.AccAddress([]byte("alice_______________"))

	a := RequestKey(account, 7)
	b := RequestKey(account, 7)
	if !bytes.Equal(a, b) {
		t.Error("expected identical keys for identical inputs")
	}
	if len(a) != RequestKeyLength {
		t.Errorf("expected key length %d, got %d", RequestKeyLength, len(a))
	}
}

// TestRequestKeyCollisionFree tests distinct (account, index) pairs map to distinct keys
func TestRequestKeyCollisionFree(t *testing.T) {
	accounts := []sdk.AccAddress{
		sdk.AccAddress([]byte("alice_______________")),
		sdk.AccAddress([]byte("bob_________________")),
		sdk.AccAddress([]byte("carol_______________")),
	}

	seen := make(map[string]string)
	for _, account := range accounts {
		for i := uint64(1); i <= 1000; i++ {
			key := FormatRequestKey(RequestKey(account, i))
			id := fmt.Sprintf("%s/%d", account, i)
			if prev, dup := seen[key]; dup {
				t.Fatalf("collision between %s and %s", prev, id)
			}
			seen[key] = id
		}
	}
}

// TestParseRequestKey tests hex parsing and length checks
func TestParseRequestKey(t *testing.T) {
	key := RequestKey(sdk.AccAddress([]byte("alice_______________")), 1)

	parsed, err := ParseRequestKey(FormatRequestKey(key))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !bytes.Equal(parsed, key) {
		t.Error("parsed key differs")
	}

	for _, bad := range []string{"", "zz", "abcd"} {
		if _, err := ParseRequestKey(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

// TestStoreKeysDoNotOverlap tests queue, request and counter keys live under distinct prefixes
func TestStoreKeysDoNotOverlap(t *testing.T) {
	account := sdk.AccAddress([]byte("alice_______________"))
	key := RequestKey(account, 1)

	keys := [][]byte{
		RequestStoreKey(QueueIncrease, key),
		RequestStoreKey(QueueDecrease, key),
		RequestIndexStoreKey(QueueIncrease, account),
		RequestIndexStoreKey(QueueDecrease, account),
		QueueSlotStoreKey(QueueIncrease, 0),
		QueueSlotStoreKey(QueueDecrease, 0),
		QueueStateStoreKey(QueueIncrease),
		QueueStateStoreKey(QueueDecrease),
		ParamsKey,
	}

	for i := range keys {
		for j := range keys {
			if i != j && bytes.Equal(keys[i], keys[j]) {
				t.Errorf("keys %d and %d collide", i, j)
			}
		}
	}

	// slot keys sort by position
	if bytes.Compare(QueueSlotStoreKey(QueueIncrease, 255), QueueSlotStoreKey(QueueIncrease, 256)) >= 0 {
		t.Error("expected big-endian slot ordering")
	}
}

// TestParseQueueKind tests queue kind parsing
func TestParseQueueKind(t *testing.T) {
	for _, kind := range []QueueKind{QueueIncrease, QueueDecrease} {
		parsed, err := ParseQueueKind(kind.String())
		if err != nil || parsed != kind {
			t.Errorf("round trip of %s failed: %v", kind, err)
		}
	}
	if _, err := ParseQueueKind("sideways"); err == nil {
		t.Error("expected error for unknown kind")
	}
}
