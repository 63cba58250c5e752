package types

import (
	"cosmossdk.io/errors"
)

// Module error codes
var (
	// Authorization
	ErrUnauthorized     = errors.Register(ModuleName, 1, "unauthorized")
	ErrForbidden        = errors.Register(ModuleName, 2, "caller is not the request owner")
	ErrLeverageDisabled = errors.Register(ModuleName, 3, "leverage is disabled")

	// Validation
	ErrInvalidPath         = errors.Register(ModuleName, 10, "invalid path length")
	ErrInvalidExecutionFee = errors.Register(ModuleName, 11, "invalid execution fee")
	ErrInvalidPayment      = errors.Register(ModuleName, 12, "invalid payment")
	ErrInvalidAmount       = errors.Register(ModuleName, 13, "invalid amount")
	ErrInvalidAddress      = errors.Register(ModuleName, 14, "invalid address")
	ErrInvalidParams       = errors.Register(ModuleName, 15, "invalid params")
	ErrInvalidDenom        = errors.Register(ModuleName, 16, "invalid denom")
	ErrInvalidMarket       = errors.Register(ModuleName, 17, "invalid market")
	ErrInvalidGenesis      = errors.Register(ModuleName, 18, "invalid genesis state")

	// Lifecycle
	ErrRequestNotFound = errors.Register(ModuleName, 20, "request not found")
	ErrRequestExpired  = errors.Register(ModuleName, 21, "request expired")
	ErrCancelNotReady  = errors.Register(ModuleName, 22, "request cannot be cancelled yet")

	// Collaborators
	ErrLedgerRejection = errors.Register(ModuleName, 30, "position ledger rejected request")
	ErrTransferFailed  = errors.Register(ModuleName, 31, "asset transfer failed")

	// Internal
	ErrInvariantViolation = errors.Register(ModuleName, 40, "invariant violation")
	ErrReentrancy         = errors.Register(ModuleName, 41, "reentrant call")
)
