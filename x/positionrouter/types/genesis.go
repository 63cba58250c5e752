package types

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// QueueEntry is a pending queue slot in genesis
type QueueEntry struct {
	Position uint64 `json:"position"`
	Key      string `json:"key"`
}

// AccountIndex holds an account's request counters
type AccountIndex struct {
	Account       string `json:"account"`
	IncreaseIndex uint64 `json:"increase_index"`
	DecreaseIndex uint64 `json:"decrease_index"`
}

// GenesisState defines the positionrouter genesis state
type GenesisState struct {
	Params           Params                    `json:"params"`
	PositionKeepers  []string                  `json:"position_keepers"`
	IncreaseQueue    QueueState                `json:"increase_queue"`
	DecreaseQueue    QueueState                `json:"decrease_queue"`
	IncreaseEntries  []QueueEntry              `json:"increase_entries"`
	DecreaseEntries  []QueueEntry              `json:"decrease_entries"`
	AccountIndexes   []AccountIndex            `json:"account_indexes"`
	IncreaseRequests []IncreasePositionRequest `json:"increase_requests"`
	DecreaseRequests []DecreasePositionRequest `json:"decrease_requests"`
	FeeReserves      sdk.Coins                 `json:"fee_reserves"`
}

// DefaultGenesis returns the default genesis state
func DefaultGenesis() *GenesisState {
	return &GenesisState{
		Params:      DefaultParams(),
		FeeReserves: sdk.NewCoins(),
	}
}

// Validate performs basic genesis state validation
func (gs GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return err
	}

	for _, keeper := range gs.PositionKeepers {
		if _, err := sdk.AccAddressFromBech32(keeper); err != nil {
			return ErrInvalidGenesis.Wrapf("position keeper %s: %s", keeper, err)
		}
	}

	if err := validateQueue(QueueIncrease, gs.IncreaseQueue, gs.IncreaseEntries); err != nil {
		return err
	}
	if err := validateQueue(QueueDecrease, gs.DecreaseQueue, gs.DecreaseEntries); err != nil {
		return err
	}

	counters := make(map[string]AccountIndex, len(gs.AccountIndexes))
	for _, idx := range gs.AccountIndexes {
		if _, err := sdk.AccAddressFromBech32(idx.Account); err != nil {
			return ErrInvalidGenesis.Wrapf("account index %s: %s", idx.Account, err)
		}
		if _, dup := counters[idx.Account]; dup {
			return ErrInvalidGenesis.Wrapf("duplicate account index %s", idx.Account)
		}
		counters[idx.Account] = idx
	}

	for i := range gs.IncreaseRequests {
		req := &gs.IncreaseRequests[i]
		if err := req.Validate(); err != nil {
			return ErrInvalidGenesis.Wrapf("increase request %d: %s", i, err)
		}
		if req.Index == 0 || req.Index > counters[req.Account].IncreaseIndex {
			return ErrInvalidGenesis.Wrapf("increase request %s/%d beyond account counter", req.Account, req.Index)
		}
	}
	for i := range gs.DecreaseRequests {
		req := &gs.DecreaseRequests[i]
		if err := req.Validate(); err != nil {
			return ErrInvalidGenesis.Wrapf("decrease request %d: %s", i, err)
		}
		if req.Index == 0 || req.Index > counters[req.Account].DecreaseIndex {
			return ErrInvalidGenesis.Wrapf("decrease request %s/%d beyond account counter", req.Account, req.Index)
		}
	}

	return gs.FeeReserves.Validate()
}

func validateQueue(kind QueueKind, state QueueState, entries []QueueEntry) error {
	if state.Start > state.Length {
		return ErrInvalidGenesis.Wrapf("%s queue start %d beyond length %d", kind, state.Start, state.Length)
	}
	seen := make(map[uint64]bool, len(entries))
	for _, e := range entries {
		if e.Position < state.Start || e.Position >= state.Length {
			return ErrInvalidGenesis.Wrapf("%s queue entry %d outside [%d, %d)", kind, e.Position, state.Start, state.Length)
		}
		if seen[e.Position] {
			return ErrInvalidGenesis.Wrapf("%s queue entry %d duplicated", kind, e.Position)
		}
		seen[e.Position] = true
		if _, err := ParseRequestKey(e.Key); err != nil {
			return ErrInvalidGenesis.Wrap(fmt.Sprintf("%s queue entry %d: %s", kind, e.Position, err))
		}
	}
	return nil
}
