package types

import (
	"errors"
	"testing"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

func validGenesis() GenesisState {
	account := sdk.AccAddress([]byte("alice_______________"))
	key := RequestKey(account, 1)

	gs := *DefaultGenesis()
	gs.PositionKeepers = []string{sdk.AccAddress([]byte("keeper1_____________")).String()}
	gs.IncreaseQueue = QueueState{Start: 0, Length: 1}
	gs.IncreaseEntries = []QueueEntry{{Position: 0, Key: FormatRequestKey(key)}}
	gs.AccountIndexes = []AccountIndex{{Account: account.String(), IncreaseIndex: 1}}
	gs.IncreaseRequests = []IncreasePositionRequest{{
		Account:         account.String(),
		Path:            []string{"uusdc"},
		MarketID:        "BTC-USDC",
		AmountIn:        math.NewInt(100),
		MinOut:          math.ZeroInt(),
		SizeDelta:       math.LegacyNewDec(10),
		IsLong:          true,
		AcceptablePrice: math.LegacyNewDec(50000),
		ExecutionFee:    math.NewInt(1000),
		Index:           1,
	}}
	return gs
}

// TestGenesisValidate tests genesis validation
func TestGenesisValidate(t *testing.T) {
	if err := DefaultGenesis().Validate(); err != nil {
		t.Fatalf("default genesis invalid: %v", err)
	}
	if err := validGenesis().Validate(); err != nil {
		t.Fatalf("valid genesis rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(gs *GenesisState)
	}{
		{"cursor beyond length", func(gs *GenesisState) { gs.IncreaseQueue.Start = 2 }},
		{"entry below cursor", func(gs *GenesisState) { gs.IncreaseQueue = QueueState{Start: 1, Length: 1} }},
		{"duplicate entry", func(gs *GenesisState) {
			gs.IncreaseQueue.Length = 2
			gs.IncreaseEntries = append(gs.IncreaseEntries, QueueEntry{Position: 0, Key: gs.IncreaseEntries[0].Key})
		}},
		{"bad entry key", func(gs *GenesisState) { gs.IncreaseEntries[0].Key = "abc" }},
		{"bad keeper", func(gs *GenesisState) { gs.PositionKeepers = []string{"nope"} }},
		{"request beyond counter", func(gs *GenesisState) { gs.IncreaseRequests[0].Index = 2 }},
		{"duplicate account index", func(gs *GenesisState) {
			gs.AccountIndexes = append(gs.AccountIndexes, gs.AccountIndexes[0])
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gs := validGenesis()
			tc.mutate(&gs)
			if err := gs.Validate(); !errors.Is(err, ErrInvalidGenesis) {
				t.Errorf("expected ErrInvalidGenesis, got %v", err)
			}
		})
	}
}
