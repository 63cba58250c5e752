package types

import (
	"cosmossdk.io/errors"
)

// Module error codes
var (
	ErrInsufficientMargin   = errors.Register(ModuleName, 2, "insufficient margin")
	ErrPositionNotFound     = errors.Register(ModuleName, 3, "position not found")
	ErrMarketNotFound       = errors.Register(ModuleName, 4, "market not found")
	ErrMarketNotActive      = errors.Register(ModuleName, 5, "market not active")
	ErrInvalidQuantity      = errors.Register(ModuleName, 7, "invalid quantity")
	ErrInvalidPrice         = errors.Register(ModuleName, 8, "invalid price")
	ErrInvalidLeverage      = errors.Register(ModuleName, 9, "invalid leverage")
	ErrCannotReducePosition = errors.Register(ModuleName, 11, "cannot reduce position by more than current size")
	ErrUnauthorized         = errors.Register(ModuleName, 12, "unauthorized")
	ErrInvalidMarketID      = errors.Register(ModuleName, 16, "invalid market ID")
	ErrPositionSizeTooLarge = errors.Register(ModuleName, 42, "position size would exceed maximum")

	// Swap and pricing errors
	ErrPriceNotFound          = errors.Register(ModuleName, 50, "price not found")
	ErrPriceExceedsAcceptable = errors.Register(ModuleName, 51, "mark price outside acceptable price")
	ErrInsufficientLiquidity  = errors.Register(ModuleName, 52, "insufficient pool liquidity")
	ErrSlippage               = errors.Register(ModuleName, 53, "swap output below minimum")
	ErrInvalidDenom           = errors.Register(ModuleName, 54, "invalid denom")
	ErrSameDenom              = errors.Register(ModuleName, 55, "swap denoms must differ")
)
