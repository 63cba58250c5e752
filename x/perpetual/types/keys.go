package types

import "strings"

const (
	// ModuleName defines the module name
	ModuleName = "perpetual"

	// StoreKey defines the primary module store key
	StoreKey = ModuleName
)

// Store key prefixes
var (
	MarketKeyPrefix   = []byte{0x01}
	PositionKeyPrefix = []byte{0x02}
	PriceKeyPrefix    = []byte{0x04}
	PoolKeyPrefix     = []byte{0x05}
)

// MarketKey returns the store key of a market
func MarketKey(marketID string) []byte {
	return append(append([]byte{}, MarketKeyPrefix...), marketID...)
}

// PriceKey returns the store key of a denom's oracle price
func PriceKey(denom string) []byte {
	return append(append([]byte{}, PriceKeyPrefix...), denom...)
}

// PoolKey returns the store key of a denom's swap pool
func PoolKey(denom string) []byte {
	return append(append([]byte{}, PoolKeyPrefix...), denom...)
}

// PositionKey returns the store key of a position. A trader holds at most one
// position per (market, collateral, direction).
func PositionKey(trader, marketID, collateralDenom string, isLong bool) []byte {
	direction := "short"
	if isLong {
		direction = "long"
	}
	id := strings.Join([]string{trader, marketID, collateralDenom, direction}, "/")
	return append(append([]byte{}, PositionKeyPrefix...), id...)
}

// TraderPositionPrefix returns the prefix shared by all of a trader's positions
func TraderPositionPrefix(trader string) []byte {
	return append(append([]byte{}, PositionKeyPrefix...), trader+"/"...)
}
