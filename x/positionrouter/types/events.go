package types

// Event types
const (
	EventTypeCreateIncreasePosition  = "create_increase_position"
	EventTypeCreateDecreasePosition  = "create_decrease_position"
	EventTypeExecuteIncreasePosition = "execute_increase_position"
	EventTypeExecuteDecreasePosition = "execute_decrease_position"
	EventTypeCancelIncreasePosition  = "cancel_increase_position"
	EventTypeCancelDecreasePosition  = "cancel_decrease_position"
	EventTypeDriveQueue              = "drive_position_queue"
	EventTypeSetPositionKeeper       = "set_position_keeper"
	EventTypeUpdateParams            = "update_router_params"
	EventTypeWithdrawFees            = "withdraw_router_fees"
	EventTypeEndBlock                = "positionrouter_endblock"
)

// Event attribute keys
const (
	AttributeKeyKey                   = "key"
	AttributeKeyAccount               = "account"
	AttributeKeyPath                  = "path"
	AttributeKeyCollateralDenom       = "collateral_denom"
	AttributeKeyMarketID              = "market_id"
	AttributeKeyAmountIn              = "amount_in"
	AttributeKeyMinOut                = "min_out"
	AttributeKeyCollateralDelta       = "collateral_delta"
	AttributeKeySizeDelta             = "size_delta"
	AttributeKeyIsLong                = "is_long"
	AttributeKeyReceiver              = "receiver"
	AttributeKeyAcceptablePrice       = "acceptable_price"
	AttributeKeyExecutionFee          = "execution_fee"
	AttributeKeyIndex                 = "index"
	AttributeKeyQueueIndex            = "queue_index"
	AttributeKeyBlockHeight           = "block_height"
	AttributeKeyBlockTime             = "block_time"
	AttributeKeyBlockGap              = "block_gap"
	AttributeKeyTimeGap               = "time_gap"
	AttributeKeyHasCollateralInNative = "has_collateral_in_native"
	AttributeKeyWithdrawNative        = "withdraw_native"
	AttributeKeyFeeReceiver           = "fee_receiver"
	AttributeKeyDepositFee            = "deposit_fee"
	AttributeKeyPayout                = "payout"
	AttributeKeyQueue                 = "queue"
	AttributeKeyStart                 = "start"
	AttributeKeyEnd                   = "end"
	AttributeKeyExecuted              = "executed"
	AttributeKeyCancelled             = "cancelled"
	AttributeKeySkipped               = "skipped"
	AttributeKeyKeeper                = "keeper"
	AttributeKeyActive                = "active"
	AttributeKeyParamsVersion         = "params_version"
	AttributeKeyDenom                 = "denom"
	AttributeKeyAmount                = "amount"
)
