package types

// MarketStatus represents the status of a market
type MarketStatus int

const (
	MarketStatusInactive   MarketStatus = iota // Market is inactive
	MarketStatusActive                         // Market accepts position changes
	MarketStatusReduceOnly                     // Market only accepts decreases
)

// String returns the string representation of MarketStatus
func (s MarketStatus) String() string {
	switch s {
	case MarketStatusActive:
		return "active"
	case MarketStatusReduceOnly:
		return "reduce_only"
	default:
		return "inactive"
	}
}

// CanIncrease returns true if positions may be opened or grown
func (s MarketStatus) CanIncrease() bool {
	return s == MarketStatusActive
}

// CanDecrease returns true if positions may be reduced or closed
func (s MarketStatus) CanDecrease() bool {
	return s == MarketStatusActive || s == MarketStatusReduceOnly
}
