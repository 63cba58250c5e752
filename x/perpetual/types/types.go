package types

import (
	"fmt"

	"cosmossdk.io/math"
)

// PositionSide represents position direction
type PositionSide int

const (
	PositionSideUnspecified PositionSide = iota
	PositionSideLong
	PositionSideShort
)

func (s PositionSide) String() string {
	switch s {
	case PositionSideLong:
		return "long"
	case PositionSideShort:
		return "short"
	default:
		return "unspecified"
	}
}

// Market defines a perpetual market tracked against an index denom price
type Market struct {
	MarketID        string         `json:"market_id"`
	IndexDenom      string         `json:"index_denom"`       // e.g. "ubtc"
	MaxLeverage     math.LegacyDec `json:"max_leverage"`      // e.g. 50x
	MaxPositionSize math.LegacyDec `json:"max_position_size"` // zero means unbounded
	Status          MarketStatus   `json:"status"`
}

// NewMarket creates an active market
func NewMarket(marketID, indexDenom string, maxLeverage math.LegacyDec) *Market {
	return &Market{
		MarketID:        marketID,
		IndexDenom:      indexDenom,
		MaxLeverage:     maxLeverage,
		MaxPositionSize: math.LegacyZeroDec(),
		Status:          MarketStatusActive,
	}
}

// Validate performs stateless validation of a market
func (m *Market) Validate() error {
	if m.MarketID == "" {
		return ErrInvalidMarketID
	}
	if m.IndexDenom == "" {
		return ErrInvalidDenom.Wrap("empty index denom")
	}
	if m.MaxLeverage.IsNil() || !m.MaxLeverage.IsPositive() {
		return ErrInvalidLeverage.Wrapf("max leverage %s", m.MaxLeverage)
	}
	if !m.MaxPositionSize.IsNil() && m.MaxPositionSize.IsNegative() {
		return ErrPositionSizeTooLarge.Wrap("negative max position size")
	}
	return nil
}

// PriceInfo is the oracle price of one unit of a denom in quote units
type PriceInfo struct {
	Denom     string         `json:"denom"`
	Price     math.LegacyDec `json:"price"`
	UpdatedAt int64          `json:"updated_at"`
}

// Pool is the swap and payout liquidity held for a denom
type Pool struct {
	Denom   string   `json:"denom"`
	Reserve math.Int `json:"reserve"`
}

// Position is a leveraged position. Size is notional in quote units and
// Collateral is held in CollateralDenom.
type Position struct {
	Trader          string         `json:"trader"`
	MarketID        string         `json:"market_id"`
	CollateralDenom string         `json:"collateral_denom"`
	IsLong          bool           `json:"is_long"`
	Size            math.LegacyDec `json:"size"`
	Collateral      math.Int       `json:"collateral"`
	EntryPrice      math.LegacyDec `json:"entry_price"`
	LastIncreasedAt int64          `json:"last_increased_at"`
}

// NewPosition creates an empty position
func NewPosition(trader, marketID, collateralDenom string, isLong bool) *Position {
	return &Position{
		Trader:          trader,
		MarketID:        marketID,
		CollateralDenom: collateralDenom,
		IsLong:          isLong,
		Size:            math.LegacyZeroDec(),
		Collateral:      math.ZeroInt(),
		EntryPrice:      math.LegacyZeroDec(),
	}
}

// Side returns the position direction
func (p *Position) Side() PositionSide {
	if p.IsLong {
		return PositionSideLong
	}
	return PositionSideShort
}

// Key returns the position's store key
func (p *Position) Key() []byte {
	return PositionKey(p.Trader, p.MarketID, p.CollateralDenom, p.IsLong)
}

// CalculatePnL returns the unrealized PnL in quote units at markPrice
func (p *Position) CalculatePnL(markPrice math.LegacyDec) math.LegacyDec {
	if p.Size.IsZero() || p.EntryPrice.IsZero() {
		return math.LegacyZeroDec()
	}
	priceDiff := markPrice.Sub(p.EntryPrice)
	if !p.IsLong {
		priceDiff = priceDiff.Neg()
	}
	return p.Size.Mul(priceDiff).Quo(p.EntryPrice)
}

// CalculateLeverage returns Size over the collateral value
func (p *Position) CalculateLeverage(collateralPrice math.LegacyDec) math.LegacyDec {
	value := math.LegacyNewDecFromInt(p.Collateral).Mul(collateralPrice)
	if !value.IsPositive() {
		return math.LegacyZeroDec()
	}
	return p.Size.Quo(value)
}

// AddSize grows the position at price. The entry price becomes the
// notional weighted harmonic mean so that held units are preserved.
func (p *Position) AddSize(size, price math.LegacyDec) {
	if !size.IsPositive() {
		return
	}
	if p.Size.IsZero() {
		p.Size = size
		p.EntryPrice = price
		return
	}
	units := p.Size.Quo(p.EntryPrice).Add(size.Quo(price))
	p.Size = p.Size.Add(size)
	p.EntryPrice = p.Size.Quo(units)
}

func (p *Position) String() string {
	return fmt.Sprintf("%s %s %s size=%s collateral=%s%s entry=%s",
		p.Trader, p.MarketID, p.Side(), p.Size, p.Collateral, p.CollateralDenom, p.EntryPrice)
}

// IsPriceAcceptable reports whether markPrice respects the caller's bound.
// Increasing a long or decreasing a short buys, so the price must not exceed
// acceptable; the other two sell and the price must not fall below it.
func IsPriceAcceptable(isLong, isIncrease bool, markPrice, acceptable math.LegacyDec) bool {
	if isLong == isIncrease {
		return markPrice.LTE(acceptable)
	}
	return markPrice.GTE(acceptable)
}
