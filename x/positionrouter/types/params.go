package types

import (
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Default parameter values
const (
	DefaultMinBlockDelayKeeper = int64(2)
	DefaultMinTimeDelayPublic  = int64(180)  // 3 minutes
	DefaultMaxTimeDelay        = int64(1800) // 30 minutes
	DefaultDepositFeeBps       = uint64(30)
	DefaultNativeDenom         = "uopen"
	DefaultWrappedNativeDenom  = "wopen"
)

// Params is the router configuration snapshot read by every admission check.
// Version is bumped on each update so emitted events can be tied to the
// configuration that admitted them.
type Params struct {
	MinExecutionFee     math.Int `json:"min_execution_fee"`
	MinBlockDelayKeeper int64    `json:"min_block_delay_keeper"`
	MinTimeDelayPublic  int64    `json:"min_time_delay_public"`
	MaxTimeDelay        int64    `json:"max_time_delay"`
	IsLeverageEnabled   bool     `json:"is_leverage_enabled"`
	DepositFeeBps       uint64   `json:"deposit_fee_bps"`
	NativeDenom         string   `json:"native_denom"`
	WrappedNativeDenom  string   `json:"wrapped_native_denom"`
	EndBlockBatchSize   uint64   `json:"end_block_batch_size"`
	Version             uint64   `json:"version"`
}

// DefaultParams returns the default router params
func DefaultParams() Params {
	return Params{
		MinExecutionFee:     math.NewInt(1000),
		MinBlockDelayKeeper: DefaultMinBlockDelayKeeper,
		MinTimeDelayPublic:  DefaultMinTimeDelayPublic,
		MaxTimeDelay:        DefaultMaxTimeDelay,
		IsLeverageEnabled:   true,
		DepositFeeBps:       DefaultDepositFeeBps,
		NativeDenom:         DefaultNativeDenom,
		WrappedNativeDenom:  DefaultWrappedNativeDenom,
		EndBlockBatchSize:   0,
		Version:             1,
	}
}

// Validate performs stateless validation of params
func (p Params) Validate() error {
	if p.MinExecutionFee.IsNil() || p.MinExecutionFee.IsNegative() {
		return ErrInvalidParams.Wrap("min execution fee must be non-negative")
	}
	if p.MinBlockDelayKeeper < 0 {
		return ErrInvalidParams.Wrapf("min block delay keeper %d", p.MinBlockDelayKeeper)
	}
	if p.MinTimeDelayPublic < 0 {
		return ErrInvalidParams.Wrapf("min time delay public %d", p.MinTimeDelayPublic)
	}
	if p.MaxTimeDelay < p.MinTimeDelayPublic {
		return ErrInvalidParams.Wrapf("max time delay %d below public delay %d", p.MaxTimeDelay, p.MinTimeDelayPublic)
	}
	if p.DepositFeeBps > BasisPointsDivisor {
		return ErrInvalidParams.Wrapf("deposit fee %d bps exceeds %d", p.DepositFeeBps, BasisPointsDivisor)
	}
	if err := sdk.ValidateDenom(p.NativeDenom); err != nil {
		return ErrInvalidParams.Wrapf("native denom: %s", err)
	}
	if err := sdk.ValidateDenom(p.WrappedNativeDenom); err != nil {
		return ErrInvalidParams.Wrapf("wrapped native denom: %s", err)
	}
	if p.NativeDenom == p.WrappedNativeDenom {
		return ErrInvalidParams.Wrap("native and wrapped native denoms must differ")
	}
	return nil
}

// DepositFee returns the protocol fee charged on amount
func (p Params) DepositFee(amount math.Int) math.Int {
	if p.DepositFeeBps == 0 || !amount.IsPositive() {
		return math.ZeroInt()
	}
	return amount.MulRaw(int64(p.DepositFeeBps)).QuoRaw(BasisPointsDivisor)
}

func (p Params) String() string {
	return fmt.Sprintf(
		"v%d min_fee=%s keeper_delay=%d blocks public_delay=%ds max_delay=%ds leverage=%t deposit_fee=%dbps",
		p.Version, p.MinExecutionFee, p.MinBlockDelayKeeper, p.MinTimeDelayPublic, p.MaxTimeDelay,
		p.IsLeverageEnabled, p.DepositFeeBps,
	)
}
