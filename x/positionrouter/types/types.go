package types

import (
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// IncreasePositionRequest is a deferred request to open or grow a position
type IncreasePositionRequest struct {
	Account               string         `json:"account"`
	Path                  []string       `json:"path"`
	MarketID              string         `json:"market_id"`
	AmountIn              math.Int       `json:"amount_in"`
	MinOut                math.Int       `json:"min_out"`
	SizeDelta             math.LegacyDec `json:"size_delta"`
	IsLong                bool           `json:"is_long"`
	AcceptablePrice       math.LegacyDec `json:"acceptable_price"`
	ExecutionFee          math.Int       `json:"execution_fee"`
	BlockHeight           int64          `json:"block_height"`
	BlockTime             int64          `json:"block_time"`
	HasCollateralInNative bool           `json:"has_collateral_in_native"`
	Index                 uint64         `json:"index"`
}

// InputDenom is the denom the account paid in
func (r *IncreasePositionRequest) InputDenom() string {
	return r.Path[0]
}

// CollateralDenom is the denom that ends up as position collateral
func (r *IncreasePositionRequest) CollateralDenom() string {
	return r.Path[len(r.Path)-1]
}

// Created returns the block clock at which the request was stored
func (r *IncreasePositionRequest) Created() Clock {
	return Clock{Height: r.BlockHeight, Time: r.BlockTime}
}

// Validate checks the request fields that do not depend on chain state
func (r *IncreasePositionRequest) Validate() error {
	if _, err := sdk.AccAddressFromBech32(r.Account); err != nil {
		return ErrInvalidAddress.Wrapf("account: %s", err)
	}
	if len(r.Path) != 1 && len(r.Path) != 2 {
		return ErrInvalidPath.Wrapf("path length %d", len(r.Path))
	}
	for _, denom := range r.Path {
		if err := sdk.ValidateDenom(denom); err != nil {
			return ErrInvalidDenom.Wrapf("path: %s", err)
		}
	}
	if r.MarketID == "" {
		return ErrInvalidMarket
	}
	if r.AmountIn.IsNil() || r.AmountIn.IsNegative() {
		return ErrInvalidAmount.Wrap("amount in")
	}
	if r.MinOut.IsNil() || r.MinOut.IsNegative() {
		return ErrInvalidAmount.Wrap("min out")
	}
	if r.SizeDelta.IsNil() || r.SizeDelta.IsNegative() {
		return ErrInvalidAmount.Wrap("size delta")
	}
	if r.AcceptablePrice.IsNil() || r.AcceptablePrice.IsNegative() {
		return ErrInvalidAmount.Wrap("acceptable price")
	}
	if r.ExecutionFee.IsNil() || r.ExecutionFee.IsNegative() {
		return ErrInvalidExecutionFee.Wrap("negative fee")
	}
	return nil
}

// DecreasePositionRequest is a deferred request to shrink or close a position
type DecreasePositionRequest struct {
	Account         string         `json:"account"`
	CollateralDenom string         `json:"collateral_denom"`
	MarketID        string         `json:"market_id"`
	CollateralDelta math.Int       `json:"collateral_delta"`
	SizeDelta       math.LegacyDec `json:"size_delta"`
	IsLong          bool           `json:"is_long"`
	Receiver        string         `json:"receiver"`
	AcceptablePrice math.LegacyDec `json:"acceptable_price"`
	ExecutionFee    math.Int       `json:"execution_fee"`
	BlockHeight     int64          `json:"block_height"`
	BlockTime       int64          `json:"block_time"`
	WithdrawNative  bool           `json:"withdraw_native"`
	Index           uint64         `json:"index"`
}

// Created returns the block clock at which the request was stored
func (r *DecreasePositionRequest) Created() Clock {
	return Clock{Height: r.BlockHeight, Time: r.BlockTime}
}

// Validate checks the request fields that do not depend on chain state
func (r *DecreasePositionRequest) Validate() error {
	if _, err := sdk.AccAddressFromBech32(r.Account); err != nil {
		return ErrInvalidAddress.Wrapf("account: %s", err)
	}
	if _, err := sdk.AccAddressFromBech32(r.Receiver); err != nil {
		return ErrInvalidAddress.Wrapf("receiver: %s", err)
	}
	if err := sdk.ValidateDenom(r.CollateralDenom); err != nil {
		return ErrInvalidDenom.Wrapf("collateral: %s", err)
	}
	if r.MarketID == "" {
		return ErrInvalidMarket
	}
	if r.CollateralDelta.IsNil() || r.CollateralDelta.IsNegative() {
		return ErrInvalidAmount.Wrap("collateral delta")
	}
	if r.SizeDelta.IsNil() || r.SizeDelta.IsNegative() {
		return ErrInvalidAmount.Wrap("size delta")
	}
	if r.AcceptablePrice.IsNil() || r.AcceptablePrice.IsNegative() {
		return ErrInvalidAmount.Wrap("acceptable price")
	}
	if r.ExecutionFee.IsNil() || r.ExecutionFee.IsNegative() {
		return ErrInvalidExecutionFee.Wrap("negative fee")
	}
	return nil
}

// QueueState holds a queue's consumption cursor and total appended length.
// Slots in [Start, Length) are pending.
type QueueState struct {
	Start  uint64 `json:"start"`
	Length uint64 `json:"length"`
}

// Pending returns the number of unconsumed slots
func (q QueueState) Pending() uint64 {
	return q.Length - q.Start
}

// QueueLengths is the result of the queue lengths query
type QueueLengths struct {
	IncreaseStart  uint64 `json:"increase_start"`
	IncreaseLength uint64 `json:"increase_length"`
	DecreaseStart  uint64 `json:"decrease_start"`
	DecreaseLength uint64 `json:"decrease_length"`
}

func (q QueueLengths) String() string {
	return fmt.Sprintf("increase %d/%d, decrease %d/%d", q.IncreaseStart, q.IncreaseLength, q.DecreaseStart, q.DecreaseLength)
}
