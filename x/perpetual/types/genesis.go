package types

import (
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// GenesisState defines the perpetual module's genesis state
type GenesisState struct {
	Markets   []Market    `json:"markets"`
	Prices    []PriceInfo `json:"prices"`
	Pools     []Pool      `json:"pools"`
	Positions []Position  `json:"positions"`
}

// DefaultGenesis returns a BTC market priced in uusdc with unit prices for
// the stable and wrapped native denoms
func DefaultGenesis() *GenesisState {
	return &GenesisState{
		Markets: []Market{*NewMarket("BTC-USDC", "ubtc", math.LegacyNewDec(50))},
		Prices: []PriceInfo{
			{Denom: "ubtc", Price: math.LegacyNewDec(50000)},
			{Denom: "uusdc", Price: math.LegacyOneDec()},
			{Denom: "wopen", Price: math.LegacyOneDec()},
		},
		Pools:     []Pool{},
		Positions: []Position{},
	}
}

// Validate performs basic genesis state validation
func (gs GenesisState) Validate() error {
	markets := make(map[string]bool, len(gs.Markets))
	for i := range gs.Markets {
		m := gs.Markets[i]
		if err := m.Validate(); err != nil {
			return fmt.Errorf("market %d: %w", i, err)
		}
		if markets[m.MarketID] {
			return fmt.Errorf("duplicate market %s", m.MarketID)
		}
		markets[m.MarketID] = true
	}

	prices := make(map[string]bool, len(gs.Prices))
	for _, p := range gs.Prices {
		if err := sdk.ValidateDenom(p.Denom); err != nil {
			return ErrInvalidDenom.Wrapf("price: %s", err)
		}
		if p.Price.IsNil() || !p.Price.IsPositive() {
			return ErrInvalidPrice.Wrapf("%s: %s", p.Denom, p.Price)
		}
		if prices[p.Denom] {
			return fmt.Errorf("duplicate price %s", p.Denom)
		}
		prices[p.Denom] = true
	}

	for _, pool := range gs.Pools {
		if err := sdk.ValidateDenom(pool.Denom); err != nil {
			return ErrInvalidDenom.Wrapf("pool: %s", err)
		}
		if pool.Reserve.IsNil() || pool.Reserve.IsNegative() {
			return ErrInvalidQuantity.Wrapf("pool %s reserve", pool.Denom)
		}
	}

	for _, pos := range gs.Positions {
		if !markets[pos.MarketID] {
			return ErrMarketNotFound.Wrapf("position market %s", pos.MarketID)
		}
		if pos.Size.IsNil() || pos.Size.IsNegative() || pos.Collateral.IsNil() || pos.Collateral.IsNegative() {
			return ErrInvalidQuantity.Wrapf("position %s", pos.String())
		}
	}
	return nil
}
