package cli

import (
	"testing"

	"github.com/cosmos/cosmos-sdk/types/kv"
)

func TestSubspaceValues(t *testing.T) {
	bz, err := (&kv.Pairs{Pairs: []kv.Pair{
		{Key: []byte("a"), Value: []byte(`{"id":"BTC-USDC"}`)},
		{Key: []byte("b"), Value: []byte(`{"id":"ETH-USDC"}`)},
	}}).Marshal()
	if err != nil {
		t.Fatalf("marshal pairs: %v", err)
	}

	got, err := subspaceValues(bz)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || string(got[1]) != `{"id":"ETH-USDC"}` {
		t.Errorf("unexpected values %s", got)
	}
}
